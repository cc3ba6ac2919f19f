package model

import (
	"strings"
	"time"
)

// CountryCode is an ISO 3166-1 alpha-2 code, upper-cased.
type CountryCode string

func NewCountryCode(raw string) CountryCode {
	return CountryCode(strings.ToUpper(strings.TrimSpace(raw)))
}

func (c CountryCode) String() string {
	return string(c)
}

func (c CountryCode) Valid() bool {
	if len(c) != 2 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

type Point struct {
	Period string  `json:"period"`
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
}

type Series []Point

func (s Series) Periods() []string {
	periods := make([]string, len(s))
	for i, point := range s {
		periods[i] = point.Period
	}
	return periods
}

func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, point := range s {
		values[i] = point.Value
	}
	return values
}

type IndicatorSeries struct {
	Key       string `json:"key"`
	Title     string `json:"title"`
	UnitLabel string `json:"unit_label"`
	Dataset   string `json:"dataset"`
	Series    Series `json:"series"`
}

type Summary struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

type Run struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	Address     string            `json:"address"`
	Country     CountryCode       `json:"country"`
	CountryName string            `json:"country_name"`
	CutoffYear  int               `json:"cutoff_year"`
	Words       int               `json:"words"`
	Indicators  []IndicatorSeries `json:"indicators"`
	Summaries   []Summary         `json:"summaries"`
}
