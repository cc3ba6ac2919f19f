// Package store archives completed runs so they can be listed and published
// later.
package store

import (
	"context"

	"macrobrief/internal/model"
)

type Store interface {
	SaveRun(ctx context.Context, run model.Run) error
	// ListRuns returns runs newest first. An empty country lists every
	// country; limit <= 0 means no limit.
	ListRuns(ctx context.Context, country model.CountryCode, limit int) ([]model.Run, error)
	Close() error
}

// NopStore discards runs. It is used when no archive database is configured.
type NopStore struct{}

func (s *NopStore) SaveRun(ctx context.Context, run model.Run) error {
	_ = ctx
	_ = run
	return nil
}

func (s *NopStore) ListRuns(ctx context.Context, country model.CountryCode, limit int) ([]model.Run, error) {
	_ = ctx
	_ = country
	_ = limit
	return nil, nil
}

func (s *NopStore) Close() error {
	return nil
}

// LatestByCountry keeps the first run seen for each country, so runs must be
// ordered newest first as ListRuns returns them.
func LatestByCountry(runs []model.Run) []model.Run {
	seen := make(map[model.CountryCode]bool, len(runs))
	latest := make([]model.Run, 0, len(runs))
	for _, run := range runs {
		if seen[run.Country] {
			continue
		}
		seen[run.Country] = true
		latest = append(latest, run)
	}
	return latest
}
