package main

import (
	"testing"

	"macrobrief/internal/store"
)

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"unit=I15", " coicop = CP00 "})
	if err != nil {
		t.Fatalf("parseFilters: %v", err)
	}
	if len(filters) != 2 || filters["unit"] != "I15" || filters["coicop"] != "CP00" {
		t.Errorf("filters = %v", filters)
	}

	for _, bad := range []string{"unit", "=I15", "unit="} {
		if _, err := parseFilters([]string{bad}); err == nil {
			t.Errorf("parseFilters(%q): expected error", bad)
		}
	}
}

func TestOpenStoreWithoutPath(t *testing.T) {
	st, err := openStore(" ")
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	if _, ok := st.(*store.NopStore); !ok {
		t.Errorf("store = %T, want *store.NopStore", st)
	}
}
