// Package narrative assembles the prompts sent to a text-generation model and
// defines the Generator boundary the model clients implement.
package narrative

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"macrobrief/internal/model"
)

// Generator produces a single completion for a prompt. Implementations wrap
// every failure in model.ErrNarrativeGeneration.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	MinWords     = 100
	MaxWords     = 300
	DefaultWords = 150
)

func ValidateWords(words int) error {
	if words < MinWords || words > MaxWords {
		return fmt.Errorf("%w: word target %d outside %d-%d", model.ErrInvalidRequest, words, MinWords, MaxWords)
	}
	return nil
}

// TextBlock renders a series as a two-column plain-text table, one period per
// line, for inclusion in a prompt.
func TextBlock(series model.Series) string {
	const periodHeader, valueHeader = "Period", "Value"

	values := make([]string, len(series))
	periodWidth, valueWidth := len(periodHeader), len(valueHeader)
	for i, point := range series {
		values[i] = strconv.FormatFloat(point.Value, 'f', -1, 64)
		periodWidth = max(periodWidth, len(point.Period))
		valueWidth = max(valueWidth, len(values[i]))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %*s\n", periodWidth, periodHeader, valueWidth, valueHeader)
	for i, point := range series {
		fmt.Fprintf(&b, "%*s %*s\n", periodWidth, point.Period, valueWidth, values[i])
	}
	return strings.TrimRight(b.String(), "\n")
}
