// Package pipeline runs one end-to-end request: resolve the address to a
// country, fetch every selected indicator, chart it, summarize it in each
// requested language and archive the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"macrobrief/internal/catalog"
	"macrobrief/internal/chart"
	"macrobrief/internal/geocode"
	"macrobrief/internal/model"
	"macrobrief/internal/narrative"
	"macrobrief/internal/providers"
	"macrobrief/internal/store"
)

const (
	DefaultLookbackYears = 5

	addressNotResolvedMessage = "Could not detect the country from the address."
	failureMessagePrefix      = "Error while retrieving data or generating the summary: "
	invalidRequestPrefix      = "Invalid request: "
)

var DefaultLanguages = []string{"es", "en"}

type Request struct {
	Address string
	// Words is the target summary length; zero means narrative.DefaultWords.
	Words int
	// Indicators selects catalog keys; empty means the whole catalog.
	Indicators []string
	// Languages lists summary languages in output order; empty means
	// DefaultLanguages.
	Languages []string
}

type Result struct {
	Run    model.Run
	Charts []chart.Config
}

type Service struct {
	Resolver      geocode.Resolver
	Provider      providers.Provider
	Catalog       *catalog.Catalog
	Generator     narrative.Generator
	Store         store.Store
	LookbackYears int
	Now           func() time.Time
	NewID         func() string
}

func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	logger := klog.FromContext(ctx)

	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, fmt.Errorf("pipeline: %w: address is required", model.ErrInvalidRequest)
	}
	words := req.Words
	if words == 0 {
		words = narrative.DefaultWords
	}
	if err := narrative.ValidateWords(words); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	languages, err := normalizeLanguages(req.Languages)
	if err != nil {
		return nil, err
	}
	indicators, err := s.Catalog.Select(req.Indicators)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if len(indicators) == 0 {
		return nil, fmt.Errorf("pipeline: %w: no indicators selected", model.ErrInvalidRequest)
	}

	now := s.now()
	lookback := s.LookbackYears
	if lookback <= 0 {
		lookback = DefaultLookbackYears
	}
	cutoff := now.Year() - lookback

	country, err := s.Resolver.Resolve(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if !country.Valid() {
		return nil, fmt.Errorf("pipeline: %w: unexpected country code %q", model.ErrAddressNotResolved, country)
	}
	logger.Info("address resolved", "country", country, "cutoffYear", cutoff)

	run := model.Run{
		ID:          s.newID(),
		CreatedAt:   now.UTC(),
		Address:     address,
		Country:     country,
		CountryName: narrative.CountryName("en", country),
		CutoffYear:  cutoff,
		Words:       words,
		Indicators:  make([]model.IndicatorSeries, 0, len(indicators)),
		Summaries:   make([]model.Summary, 0, len(languages)),
	}
	charts := make([]chart.Config, 0, len(indicators))

	for _, indicator := range indicators {
		series, err := s.Provider.FetchSeries(ctx, providers.Query{
			Dataset:    indicator.Dataset,
			Filters:    indicator.Filters,
			Country:    country,
			CutoffYear: cutoff,
		})
		if err != nil {
			return nil, fmt.Errorf("pipeline: %s: %w", indicator.Key, err)
		}
		logger.V(1).Info("indicator fetched", "indicator", indicator.Key, "points", len(series))

		run.Indicators = append(run.Indicators, model.IndicatorSeries{
			Key:       indicator.Key,
			Title:     indicator.Title,
			UnitLabel: indicator.UnitLabel,
			Dataset:   indicator.Dataset,
			Series:    series,
		})
		charts = append(charts, chart.BuildLine(indicator, series))
	}

	for _, lang := range languages {
		sections := make([]narrative.Section, len(indicators))
		for i, indicator := range indicators {
			sections[i] = narrative.Section{Heading: indicator.Heading(lang), Series: run.Indicators[i].Series}
		}
		prompt, err := narrative.BuildPrompt(lang, narrative.PromptInput{
			CountryName: narrative.CountryName(lang, country),
			Words:       words,
			Years:       lookback,
			Sections:    sections,
		})
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		text, err := s.Generator.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %s summary: %w", lang, err)
		}
		run.Summaries = append(run.Summaries, model.Summary{Language: lang, Text: text})
	}

	if s.Store != nil {
		if err := s.Store.SaveRun(ctx, run); err != nil {
			logger.Error(err, "failed to archive run", "run", run.ID)
		}
	}
	logger.Info("run complete", "run", run.ID, "country", country, "indicators", len(run.Indicators), "summaries", len(run.Summaries))

	return &Result{Run: run, Charts: charts}, nil
}

// UserMessage maps a Run error to the single line shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrAddressNotResolved):
		return addressNotResolvedMessage
	case errors.Is(err, model.ErrInvalidRequest):
		return invalidRequestPrefix + err.Error()
	default:
		return failureMessagePrefix + err.Error()
	}
}

func (s *Service) check() error {
	switch {
	case s.Resolver == nil:
		return errors.New("pipeline: resolver is required")
	case s.Provider == nil:
		return errors.New("pipeline: provider is required")
	case s.Catalog == nil:
		return errors.New("pipeline: catalog is required")
	case s.Generator == nil:
		return errors.New("pipeline: generator is required")
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func normalizeLanguages(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return append([]string(nil), DefaultLanguages...), nil
	}
	seen := make(map[string]bool, len(raw))
	languages := make([]string, 0, len(raw))
	for _, lang := range raw {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" || seen[lang] {
			continue
		}
		if !narrative.SupportedLanguage(lang) {
			return nil, fmt.Errorf("pipeline: %w: unsupported language %q", model.ErrInvalidRequest, lang)
		}
		seen[lang] = true
		languages = append(languages, lang)
	}
	if len(languages) == 0 {
		return nil, fmt.Errorf("pipeline: %w: no summary language", model.ErrInvalidRequest)
	}
	return languages, nil
}
