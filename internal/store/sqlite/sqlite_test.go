package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"macrobrief/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun(id string, country model.CountryCode, created time.Time) model.Run {
	return model.Run{
		ID:          id,
		CreatedAt:   created,
		Address:     "Calle Mayor 1, Madrid",
		Country:     country,
		CountryName: "Spain",
		CutoffYear:  2020,
		Words:       150,
		Indicators: []model.IndicatorSeries{
			{Key: "hicp", Title: "HICP", UnitLabel: "HICP Index", Dataset: "prc_hicp_midx", Series: model.Series{
				{Period: "2021Q1", Label: "2021M01", Value: 101.2},
				{Period: "2021Q1", Label: "2021M02", Value: 101.6},
			}},
			{Key: "gdp", Title: "GDP", UnitLabel: "GDP (national unit)", Dataset: "namq_10_gdp", Series: model.Series{}},
		},
		Summaries: []model.Summary{
			{Language: "es", Text: "Resumen."},
			{Language: "en", Text: "Summary."},
		},
	}
}

func TestSaveAndListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	if err := s.SaveRun(ctx, sampleRun("a", "ES", base)); err != nil {
		t.Fatalf("SaveRun a: %v", err)
	}
	if err := s.SaveRun(ctx, sampleRun("b", "NL", base.Add(time.Hour))); err != nil {
		t.Fatalf("SaveRun b: %v", err)
	}

	runs, err := s.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "b" || runs[1].ID != "a" {
		t.Fatalf("runs order = %+v", runs)
	}

	got := runs[1]
	if !got.CreatedAt.Equal(base) || got.Country != "ES" || got.CutoffYear != 2020 || got.Words != 150 {
		t.Errorf("run header = %+v", got)
	}
	if len(got.Indicators) != 2 || got.Indicators[0].Key != "hicp" || got.Indicators[1].Key != "gdp" {
		t.Fatalf("indicators = %+v", got.Indicators)
	}
	hicp := got.Indicators[0].Series
	if len(hicp) != 2 || hicp[1].Label != "2021M02" || hicp[1].Value != 101.6 {
		t.Errorf("hicp series = %+v", hicp)
	}
	if got.Indicators[1].Series == nil || len(got.Indicators[1].Series) != 0 {
		t.Errorf("gdp series = %#v", got.Indicators[1].Series)
	}
	if len(got.Summaries) != 2 || got.Summaries[0].Language != "es" || got.Summaries[1].Text != "Summary." {
		t.Errorf("summaries = %+v", got.Summaries)
	}

	filtered, err := s.ListRuns(ctx, "NL", 10)
	if err != nil {
		t.Fatalf("ListRuns NL: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "b" {
		t.Errorf("filtered = %+v", filtered)
	}

	limited, err := s.ListRuns(ctx, "", 1)
	if err != nil {
		t.Fatalf("ListRuns limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "b" {
		t.Errorf("limited = %+v", limited)
	}
}

func TestSaveRunReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := sampleRun("a", "ES", time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run.Indicators = run.Indicators[:1]
	run.Indicators[0].Series = run.Indicators[0].Series[:1]
	run.Summaries = run.Summaries[1:]
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun again: %v", err)
	}

	runs, err := s.ListRuns(ctx, "ES", 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d", len(runs))
	}
	if len(runs[0].Indicators) != 1 || len(runs[0].Indicators[0].Series) != 1 || len(runs[0].Summaries) != 1 {
		t.Errorf("replaced run = %+v", runs[0])
	}
}

func TestSaveRunRequiresID(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveRun(context.Background(), model.Run{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty path")
	}
}
