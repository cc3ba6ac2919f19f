package geocode

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"macrobrief/internal/model"
)

type countingResolver struct {
	calls int
	codes map[string]model.CountryCode
}

func (r *countingResolver) Resolve(ctx context.Context, address string) (model.CountryCode, error) {
	r.calls++
	if code, ok := r.codes[address]; ok {
		return code, nil
	}
	return "", fmt.Errorf("%w: no match", model.ErrAddressNotResolved)
}

func TestCachedResolverMemoizesSuccess(t *testing.T) {
	next := &countingResolver{codes: map[string]model.CountryCode{"Amsterdam, Netherlands": "NL"}}
	resolver, err := NewCachedResolver(next, 4)
	if err != nil {
		t.Fatalf("NewCachedResolver: %v", err)
	}

	for i := 0; i < 2; i++ {
		code, err := resolver.Resolve(context.Background(), "Amsterdam, Netherlands")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if code != "NL" {
			t.Errorf("code = %q, want NL", code)
		}
	}
	// Same address with different punctuation and case hits the cache.
	if _, err := resolver.Resolve(context.Background(), "  amsterdam  netherlands "); err != nil {
		t.Fatalf("Resolve normalized: %v", err)
	}
	if next.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", next.calls)
	}
	if resolver.Len() != 1 {
		t.Errorf("cache len = %d, want 1", resolver.Len())
	}
}

func TestCachedResolverDoesNotCacheFailures(t *testing.T) {
	next := &countingResolver{}
	resolver, err := NewCachedResolver(next, 0)
	if err != nil {
		t.Fatalf("NewCachedResolver: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := resolver.Resolve(context.Background(), "Nowhere"); !errors.Is(err, model.ErrAddressNotResolved) {
			t.Fatalf("expected ErrAddressNotResolved, got %v", err)
		}
	}
	if next.calls != 2 {
		t.Errorf("upstream calls = %d, want 2", next.calls)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"Amsterdam, Netherlands":      "amsterdam netherlands",
		"  Calle Mayor 1 -- Madrid ": "calle mayor 1 madrid",
		"":                            "",
		"!!!":                         "",
	}
	for in, want := range tests {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
