// Package config assembles the application configuration from the
// environment and builds the clients it describes.
package config

import (
	"fmt"
	"strings"

	"macrobrief/internal/envconfig"
	"macrobrief/internal/geocode/nominatim"
	"macrobrief/internal/narrative"
	"macrobrief/internal/narrative/gemini"
	"macrobrief/internal/narrative/openai"
	"macrobrief/internal/providers/eurostat"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultLookbackYears    = 5
	defaultGeocodeCacheSize = 256
)

var defaultLanguages = []string{"es", "en"}

// Config holds the application configuration
type Config struct {
	DBPath            string
	CatalogPath       string
	LookbackYears     int
	Words             int
	Languages         []string
	NarrativeProvider string
	GeocodeCacheSize  int

	Eurostat  eurostat.Config
	Nominatim nominatim.Config
	OpenAI    openai.Config
	Gemini    gemini.Config
}

// Default reads the configuration from the environment, falling back to
// built-in defaults for anything unset.
func Default() (*Config, error) {
	eurostatCfg, err := eurostat.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	nominatimCfg, err := nominatim.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	openaiCfg, err := openai.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	geminiCfg, err := gemini.ConfigFromEnv()
	if err != nil {
		return nil, err
	}

	return &Config{
		DBPath:            envconfig.Get("MACROBRIEF_DB", ""),
		CatalogPath:       envconfig.Get("MACROBRIEF_CATALOG", ""),
		LookbackYears:     envconfig.Int("MACROBRIEF_LOOKBACK_YEARS", defaultLookbackYears),
		Words:             envconfig.Int("MACROBRIEF_WORDS", narrative.DefaultWords),
		Languages:         envconfig.List("MACROBRIEF_LANGUAGES", append([]string(nil), defaultLanguages...)),
		NarrativeProvider: strings.ToLower(envconfig.Get("MACROBRIEF_NARRATIVE_PROVIDER", ProviderOpenAI)),
		GeocodeCacheSize:  envconfig.Int("MACROBRIEF_GEOCODE_CACHE_SIZE", defaultGeocodeCacheSize),
		Eurostat:          eurostatCfg,
		Nominatim:         nominatimCfg,
		OpenAI:            openaiCfg,
		Gemini:            geminiCfg,
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LookbackYears < 1 {
		return fmt.Errorf("config: lookback years must be at least 1")
	}
	if err := narrative.ValidateWords(c.Words); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(c.Languages) == 0 {
		return fmt.Errorf("config: at least one summary language is required")
	}
	for _, lang := range c.Languages {
		if !narrative.SupportedLanguage(lang) {
			return fmt.Errorf("config: unsupported summary language %q", lang)
		}
	}
	switch c.NarrativeProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("config: unknown narrative provider %q (want %s or %s)", c.NarrativeProvider, ProviderOpenAI, ProviderGemini)
	}
	if c.GeocodeCacheSize < 0 {
		return fmt.Errorf("config: geocode cache size must not be negative")
	}
	return nil
}

// NewGenerator builds the client for the configured narrative provider.
// Credentials are only checked here, so commands that never generate text
// run without them.
func (c *Config) NewGenerator() (narrative.Generator, error) {
	switch c.NarrativeProvider {
	case ProviderOpenAI:
		return openai.NewWithConfig(c.OpenAI)
	case ProviderGemini:
		return gemini.NewWithConfig(c.Gemini)
	default:
		return nil, fmt.Errorf("config: unknown narrative provider %q", c.NarrativeProvider)
	}
}
