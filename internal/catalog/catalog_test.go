package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"macrobrief/internal/model"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	if !reflect.DeepEqual(c.Keys(), []string{"hicp", "gdp"}) {
		t.Fatalf("keys = %v, want [hicp gdp]", c.Keys())
	}

	hicp, ok := c.Lookup("HICP")
	if !ok {
		t.Fatal("expected hicp indicator")
	}
	if hicp.Dataset != "prc_hicp_midx" {
		t.Errorf("hicp dataset = %q", hicp.Dataset)
	}
	if !reflect.DeepEqual(hicp.Filters, map[string]string{"coicop": "CP00", "unit": "I15"}) {
		t.Errorf("hicp filters = %v", hicp.Filters)
	}

	gdp, _ := c.Lookup("gdp")
	wantGDP := map[string]string{"na_item": "B1GQ", "unit": "CLV10_MNAC", "s_adj": "NSA"}
	if gdp.Dataset != "namq_10_gdp" || !reflect.DeepEqual(gdp.Filters, wantGDP) {
		t.Errorf("gdp = %+v", gdp)
	}
	if gdp.Heading("es") != "PIB trimestral (volumen encadenado)" {
		t.Errorf("gdp es heading = %q", gdp.Heading("es"))
	}
	if gdp.Heading("de") != gdp.Headings["en"] {
		t.Errorf("expected English fallback heading, got %q", gdp.Heading("de"))
	}
}

func TestSelectKeepsCatalogOrder(t *testing.T) {
	c := Default()

	selected, err := c.Select([]string{"gdp", "hicp"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(selected) != 2 || selected[0].Key != "hicp" || selected[1].Key != "gdp" {
		t.Errorf("selected = %+v", selected)
	}

	only, err := c.Select([]string{" GDP "})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(only) != 1 || only[0].Key != "gdp" {
		t.Errorf("selected = %+v", only)
	}

	all, err := c.Select(nil)
	if err != nil || len(all) != 2 {
		t.Errorf("Select(nil) = %v, %v", all, err)
	}
}

func TestSelectRejectsUnknown(t *testing.T) {
	_, err := Default().Select([]string{"hicp", "unemployment"})
	if !errors.Is(err, model.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if !strings.Contains(err.Error(), "unemployment") {
		t.Errorf("expected unknown key in message, got %q", err.Error())
	}

	if _, err := Default().Select([]string{" ", ""}); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("blank selection: expected ErrInvalidRequest, got %v", err)
	}
}

func TestParseValidation(t *testing.T) {
	tests := map[string]string{
		"empty":     "indicators: []",
		"no key":    "indicators:\n  - dataset: x\n",
		"no data":   "indicators:\n  - key: a\n",
		"duplicate": "indicators:\n  - key: a\n    dataset: x\n  - key: A\n    dataset: y\n",
		"bad yaml":  "indicators: [",
	}
	for name, doc := range tests {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "indicators:\n  - key: unemp\n    dataset: une_rt_q\n    filters:\n      unit: PC_ACT\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	indicator, ok := c.Lookup("unemp")
	if !ok || indicator.Title != "unemp" || indicator.Filters["unit"] != "PC_ACT" {
		t.Errorf("indicator = %+v", indicator)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
