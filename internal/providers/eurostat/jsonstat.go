package eurostat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"macrobrief/internal/model"
	"macrobrief/internal/period"
)

const timeDimension = "time"

// jsonStatResponse is the subset of a JSON-stat 2.0 dataset the fetcher
// relies on. Raw fields are validated in decodeDataset.
type jsonStatResponse struct {
	Label     string                       `json:"label"`
	Updated   string                       `json:"updated"`
	ID        []string                     `json:"id"`
	Size      []int                        `json:"size"`
	Dimension map[string]jsonStatDimension `json:"dimension"`
	Value     json.RawMessage              `json:"value"`
}

type jsonStatDimension struct {
	Label    string            `json:"label"`
	Category *jsonStatCategory `json:"category"`
}

type jsonStatCategory struct {
	Index json.RawMessage   `json:"index"`
	Label map[string]string `json:"label"`
}

type dataset struct {
	positions map[int]string
	labels    map[string]string
	values    map[int]float64
	stride    int
	timeSize  int
}

type indexedPoint struct {
	timePos int
	flat    int
	point   model.Point
}

func parseSeries(body []byte, cutoffYear int) (model.Series, error) {
	ds, err := decodeDataset(body)
	if err != nil {
		return nil, err
	}

	collected := make([]indexedPoint, 0, len(ds.values))
	for flat, value := range ds.values {
		timePos := ds.timePosition(flat)
		code, ok := ds.positions[timePos]
		if !ok {
			return nil, fmt.Errorf("%w: no time category at position %d", model.ErrMalformedResponse, timePos)
		}
		label, ok := ds.labels[code]
		if !ok {
			return nil, fmt.Errorf("%w: no label for time category %q", model.ErrMalformedResponse, code)
		}

		year, ok := period.LeadingYear(label)
		if !ok || year < cutoffYear {
			continue
		}
		normalized, ok := period.Normalize(label)
		if !ok {
			continue
		}
		collected = append(collected, indexedPoint{
			timePos: timePos,
			flat:    flat,
			point:   model.Point{Period: normalized, Label: label, Value: value},
		})
	}

	sort.Slice(collected, func(i, j int) bool {
		if collected[i].timePos != collected[j].timePos {
			return collected[i].timePos < collected[j].timePos
		}
		return collected[i].flat < collected[j].flat
	})

	series := make(model.Series, len(collected))
	for i, entry := range collected {
		series[i] = entry.point
	}
	return series, nil
}

func decodeDataset(body []byte) (*dataset, error) {
	var payload jsonStatResponse
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}

	timeDim, ok := payload.Dimension[timeDimension]
	if !ok || timeDim.Category == nil || isAbsent(timeDim.Category.Index) {
		return nil, fmt.Errorf("%w: missing dimension.time.category.index", model.ErrMalformedResponse)
	}
	if timeDim.Category.Label == nil {
		return nil, fmt.Errorf("%w: missing dimension.time.category.label", model.ErrMalformedResponse)
	}
	if isAbsent(payload.Value) {
		return nil, fmt.Errorf("%w: missing value", model.ErrMalformedResponse)
	}

	positions, err := decodeIndex(timeDim.Category.Index)
	if err != nil {
		return nil, err
	}
	values, err := decodeValues(payload.Value)
	if err != nil {
		return nil, err
	}

	ds := &dataset{
		positions: positions,
		labels:    timeDim.Category.Label,
		values:    values,
	}
	ds.stride, ds.timeSize = timeStride(payload.ID, payload.Size)
	return ds, nil
}

// timeStride returns the row-major stride and size of the time dimension, or
// (1, 0) when id/size are absent and flat positions are time positions.
func timeStride(ids []string, sizes []int) (int, int) {
	if len(ids) == 0 || len(ids) != len(sizes) {
		return 1, 0
	}
	for i, id := range ids {
		if id != timeDimension {
			continue
		}
		stride := 1
		for _, size := range sizes[i+1:] {
			if size > 0 {
				stride *= size
			}
		}
		return stride, sizes[i]
	}
	return 1, 0
}

func (d *dataset) timePosition(flat int) int {
	pos := flat / d.stride
	if d.timeSize > 0 {
		pos %= d.timeSize
	}
	return pos
}

// decodeIndex inverts a category index given as {"code": position} or as an
// ordered array of codes.
func decodeIndex(raw json.RawMessage) (map[int]string, error) {
	var byCode map[string]int
	if err := json.Unmarshal(raw, &byCode); err == nil {
		positions := make(map[int]string, len(byCode))
		for code, pos := range byCode {
			positions[pos] = code
		}
		return positions, nil
	}

	var ordered []string
	if err := json.Unmarshal(raw, &ordered); err == nil {
		positions := make(map[int]string, len(ordered))
		for pos, code := range ordered {
			positions[pos] = code
		}
		return positions, nil
	}

	return nil, fmt.Errorf("%w: dimension.time.category.index has unexpected shape", model.ErrMalformedResponse)
}

// decodeValues accepts the sparse object form {"0": 1.2} and the dense array
// form [1.2, null]. Null entries are missing observations and are skipped.
func decodeValues(raw json.RawMessage) (map[int]float64, error) {
	trimmed := bytes.TrimSpace(raw)
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	values := make(map[int]float64)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		var sparse map[string]any
		if err := decoder.Decode(&sparse); err != nil {
			return nil, fmt.Errorf("%w: value: %v", model.ErrMalformedResponse, err)
		}
		for key, entry := range sparse {
			pos, err := strconv.Atoi(key)
			if err != nil || pos < 0 {
				return nil, fmt.Errorf("%w: value key %q is not a position", model.ErrMalformedResponse, key)
			}
			if entry == nil {
				continue
			}
			number, err := toFloat(entry)
			if err != nil {
				return nil, fmt.Errorf("%w: value %q: %v", model.ErrMalformedResponse, key, err)
			}
			values[pos] = number
		}
	case len(trimmed) > 0 && trimmed[0] == '[':
		var dense []any
		if err := decoder.Decode(&dense); err != nil {
			return nil, fmt.Errorf("%w: value: %v", model.ErrMalformedResponse, err)
		}
		for pos, entry := range dense {
			if entry == nil {
				continue
			}
			number, err := toFloat(entry)
			if err != nil {
				return nil, fmt.Errorf("%w: value[%d]: %v", model.ErrMalformedResponse, pos, err)
			}
			values[pos] = number
		}
	default:
		return nil, fmt.Errorf("%w: value has unexpected shape", model.ErrMalformedResponse)
	}
	return values, nil
}

func toFloat(entry any) (float64, error) {
	switch typed := entry.(type) {
	case json.Number:
		return typed.Float64()
	case float64:
		return typed, nil
	default:
		return 0, fmt.Errorf("not a number: %v", entry)
	}
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
