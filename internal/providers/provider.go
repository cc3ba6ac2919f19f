package providers

import (
	"context"

	"macrobrief/internal/model"
)

// Query selects one country's series from a statistical dataset.
type Query struct {
	Dataset    string
	Filters    map[string]string
	Country    model.CountryCode
	CutoffYear int
}

type Provider interface {
	Name() string
	FetchSeries(ctx context.Context, query Query) (model.Series, error)
}
