package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"macrobrief/internal/model"
	"macrobrief/internal/store"
)

const timeLayout = time.RFC3339Nano

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun replaces everything stored under run.ID.
func (s *Store) SaveRun(ctx context.Context, run model.Run) (err error) {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("sqlite: run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, address, country, country_name, cutoff_year, words)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			address = excluded.address,
			country = excluded.country,
			country_name = excluded.country_name,
			cutoff_year = excluded.cutoff_year,
			words = excluded.words
	`, run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Address, run.Country.String(), run.CountryName, run.CutoffYear, run.Words)
	if err != nil {
		return err
	}

	for _, table := range []string{"run_indicators", "run_points", "run_summaries"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", run.ID); err != nil {
			return err
		}
	}

	indicatorStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_indicators (run_id, position, indicator_key, title, unit_label, dataset)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer indicatorStmt.Close()

	pointStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_points (run_id, indicator_key, position, period, label, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer pointStmt.Close()

	for i, indicator := range run.Indicators {
		if _, err = indicatorStmt.ExecContext(ctx, run.ID, i, indicator.Key, indicator.Title, indicator.UnitLabel, indicator.Dataset); err != nil {
			return err
		}
		for j, point := range indicator.Series {
			if _, err = pointStmt.ExecContext(ctx, run.ID, indicator.Key, j, point.Period, point.Label, point.Value); err != nil {
				return err
			}
		}
	}

	for i, summary := range run.Summaries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_summaries (run_id, position, language, text)
			VALUES (?, ?, ?, ?)
		`, run.ID, i, summary.Language, summary.Text)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) ListRuns(ctx context.Context, country model.CountryCode, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, address, country, country_name, cutoff_year, words
		FROM runs
		WHERE ? = '' OR country = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, country.String(), country.String(), limit)
	if err != nil {
		return nil, err
	}

	var runs []model.Run
	for rows.Next() {
		var (
			run       model.Run
			createdAt string
			code      string
		)
		if err := rows.Scan(&run.ID, &createdAt, &run.Address, &code, &run.CountryName, &run.CutoffYear, &run.Words); err != nil {
			_ = rows.Close()
			return nil, err
		}
		run.Country = model.CountryCode(code)
		run.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("sqlite: run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// The pool holds a single connection, so the cursor must be released
	// before the detail queries run.
	if err := rows.Close(); err != nil {
		return nil, err
	}

	for i := range runs {
		if err := s.loadDetails(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) loadDetails(ctx context.Context, run *model.Run) error {
	indicators, err := s.loadIndicators(ctx, run.ID)
	if err != nil {
		return err
	}
	points, err := s.loadPoints(ctx, run.ID)
	if err != nil {
		return err
	}
	for i := range indicators {
		indicators[i].Series = points[indicators[i].Key]
		if indicators[i].Series == nil {
			indicators[i].Series = model.Series{}
		}
	}
	run.Indicators = indicators

	run.Summaries, err = s.loadSummaries(ctx, run.ID)
	return err
}

func (s *Store) loadIndicators(ctx context.Context, runID string) ([]model.IndicatorSeries, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT indicator_key, title, unit_label, dataset
		FROM run_indicators WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indicators []model.IndicatorSeries
	for rows.Next() {
		var indicator model.IndicatorSeries
		if err := rows.Scan(&indicator.Key, &indicator.Title, &indicator.UnitLabel, &indicator.Dataset); err != nil {
			return nil, err
		}
		indicators = append(indicators, indicator)
	}
	return indicators, rows.Err()
}

func (s *Store) loadPoints(ctx context.Context, runID string) (map[string]model.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT indicator_key, period, label, value
		FROM run_points WHERE run_id = ? ORDER BY indicator_key, position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make(map[string]model.Series)
	for rows.Next() {
		var (
			key   string
			point model.Point
		)
		if err := rows.Scan(&key, &point.Period, &point.Label, &point.Value); err != nil {
			return nil, err
		}
		points[key] = append(points[key], point)
	}
	return points, rows.Err()
}

func (s *Store) loadSummaries(ctx context.Context, runID string) ([]model.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT language, text FROM run_summaries WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.Summary
	for rows.Next() {
		var summary model.Summary
		if err := rows.Scan(&summary.Language, &summary.Text); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			address TEXT NOT NULL,
			country TEXT NOT NULL,
			country_name TEXT NOT NULL,
			cutoff_year INTEGER NOT NULL,
			words INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS runs_country_created ON runs (country, created_at);`,
		`CREATE TABLE IF NOT EXISTS run_indicators (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			indicator_key TEXT NOT NULL,
			title TEXT NOT NULL,
			unit_label TEXT NOT NULL,
			dataset TEXT NOT NULL,
			PRIMARY KEY (run_id, indicator_key)
		);`,
		`CREATE TABLE IF NOT EXISTS run_points (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			indicator_key TEXT NOT NULL,
			position INTEGER NOT NULL,
			period TEXT NOT NULL,
			label TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (run_id, indicator_key, position)
		);`,
		`CREATE TABLE IF NOT EXISTS run_summaries (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			language TEXT NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}

var _ store.Store = (*Store)(nil)
