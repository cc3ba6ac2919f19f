// Package geocode turns free-text addresses into country codes.
package geocode

import (
	"context"
	"strings"
	"unicode"

	"macrobrief/internal/model"
)

// Resolver returns the country of an address. Every failure, whether the
// lookup found nothing or the request itself failed, matches
// model.ErrAddressNotResolved.
type Resolver interface {
	Resolve(ctx context.Context, address string) (model.CountryCode, error)
}

// NormalizeKey lower-cases s and collapses everything but letters and digits
// to single spaces.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteByte(' ')
			prevSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}
