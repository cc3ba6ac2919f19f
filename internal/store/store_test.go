package store

import (
	"context"
	"testing"

	"macrobrief/internal/model"
)

func TestLatestByCountry(t *testing.T) {
	runs := []model.Run{
		{ID: "3", Country: "NL"},
		{ID: "2", Country: "ES"},
		{ID: "1", Country: "NL"},
	}
	latest := LatestByCountry(runs)
	if len(latest) != 2 || latest[0].ID != "3" || latest[1].ID != "2" {
		t.Errorf("LatestByCountry = %+v", latest)
	}
}

func TestNopStore(t *testing.T) {
	var s Store = &NopStore{}
	if err := s.SaveRun(context.Background(), model.Run{ID: "x"}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	runs, err := s.ListRuns(context.Background(), "", 0)
	if err != nil || len(runs) != 0 {
		t.Errorf("ListRuns = %v, %v", runs, err)
	}
}
