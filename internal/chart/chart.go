// Package chart turns indicator series into renderer-neutral line chart
// configurations.
package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"macrobrief/internal/catalog"
	"macrobrief/internal/model"
)

const (
	TypeLine     = "line"
	periodAxis   = "Period"
	defaultColor = "#4F46E5"
)

type Config struct {
	ChartType  string   `json:"chartType"`
	Title      string   `json:"title"`
	XAxis      string   `json:"xAxis,omitempty"`
	YAxis      string   `json:"yAxis,omitempty"`
	Series     []Series `json:"series"`
	ShowLegend bool     `json:"showLegend"`
	ShowGrid   bool     `json:"showGrid"`
}

type Series struct {
	Name  string  `json:"name"`
	Color string  `json:"color,omitempty"`
	Data  []Point `json:"data"`
}

type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BuildLine plots series over its normalized periods, in series order.
func BuildLine(indicator catalog.Indicator, series model.Series) Config {
	color := indicator.Color
	if color == "" {
		color = defaultColor
	}
	yAxis := indicator.UnitLabel
	if yAxis == "" {
		yAxis = "Value"
	}

	points := make([]Point, 0, len(series))
	for _, p := range series {
		points = append(points, Point{Label: p.Period, Value: roundTo2(p.Value)})
	}

	return Config{
		ChartType: TypeLine,
		Title:     indicator.Title,
		XAxis:     periodAxis,
		YAxis:     yAxis,
		Series: []Series{{
			Name:  indicator.Title,
			Color: color,
			Data:  points,
		}},
		ShowGrid: true,
	}
}

// FromRun rebuilds the charts of an archived run. Colors come from cat when
// the indicator is still known to it.
func FromRun(cat *catalog.Catalog, run model.Run) []Config {
	charts := make([]Config, 0, len(run.Indicators))
	for _, ind := range run.Indicators {
		indicator, ok := cat.Lookup(ind.Key)
		if !ok {
			indicator = catalog.Indicator{Key: ind.Key}
		}
		indicator.Title = ind.Title
		indicator.UnitLabel = ind.UnitLabel
		charts = append(charts, BuildLine(indicator, ind.Series))
	}
	return charts
}

// WriteJSON writes cfg as indented JSON to dir/name.json.
func WriteJSON(dir, name string, cfg Config) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("chart: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("chart: %w", err)
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("chart: %w", err)
	}
	return path, nil
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
