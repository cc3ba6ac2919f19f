// Package catalog holds the indicators a user can select: which dataset and
// dimension filters back each one, and how it is labelled in charts and
// prompts.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"macrobrief/internal/model"
)

//go:embed default.yaml
var defaultCatalog []byte

type Indicator struct {
	Key       string            `yaml:"key"`
	Dataset   string            `yaml:"dataset"`
	Filters   map[string]string `yaml:"filters"`
	Title     string            `yaml:"title"`
	UnitLabel string            `yaml:"unit_label"`
	Color     string            `yaml:"color"`
	Headings  map[string]string `yaml:"headings"`
}

// Heading returns the prompt heading for lang, falling back to English and
// then to the title.
func (i Indicator) Heading(lang string) string {
	if heading, ok := i.Headings[strings.ToLower(lang)]; ok && heading != "" {
		return heading
	}
	if heading, ok := i.Headings["en"]; ok && heading != "" {
		return heading
	}
	return i.Title
}

type Catalog struct {
	Indicators []Indicator `yaml:"indicators"`
}

func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file, or returns the embedded default when path is
// empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) Validate() error {
	if len(c.Indicators) == 0 {
		return errors.New("catalog: no indicators defined")
	}
	seen := make(map[string]struct{}, len(c.Indicators))
	for i := range c.Indicators {
		indicator := &c.Indicators[i]
		indicator.Key = strings.ToLower(strings.TrimSpace(indicator.Key))
		if indicator.Key == "" {
			return fmt.Errorf("catalog: indicator %d has no key", i)
		}
		if _, ok := seen[indicator.Key]; ok {
			return fmt.Errorf("catalog: duplicate indicator %q", indicator.Key)
		}
		seen[indicator.Key] = struct{}{}
		if strings.TrimSpace(indicator.Dataset) == "" {
			return fmt.Errorf("catalog: indicator %q has no dataset", indicator.Key)
		}
		if indicator.Title == "" {
			indicator.Title = indicator.Key
		}
	}
	return nil
}

func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.Indicators))
	for i, indicator := range c.Indicators {
		keys[i] = indicator.Key
	}
	return keys
}

func (c *Catalog) Lookup(key string) (Indicator, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, indicator := range c.Indicators {
		if indicator.Key == key {
			return indicator, true
		}
	}
	return Indicator{}, false
}

// Select returns the requested indicators in catalog order. An empty
// selection means every indicator.
func (c *Catalog) Select(keys []string) ([]Indicator, error) {
	if len(keys) == 0 {
		selected := make([]Indicator, len(c.Indicators))
		copy(selected, c.Indicators)
		return selected, nil
	}

	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if _, ok := c.Lookup(key); !ok {
			return nil, fmt.Errorf("catalog: %w: unknown indicator %q", model.ErrInvalidRequest, key)
		}
		wanted[key] = struct{}{}
	}
	if len(wanted) == 0 {
		return nil, fmt.Errorf("catalog: %w: no indicators selected", model.ErrInvalidRequest)
	}

	selected := make([]Indicator, 0, len(wanted))
	for _, indicator := range c.Indicators {
		if _, ok := wanted[indicator.Key]; ok {
			selected = append(selected, indicator)
		}
	}
	return selected, nil
}
