package eurostat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"macrobrief/internal/envconfig"
	"macrobrief/internal/model"
	"macrobrief/internal/providers"
)

const (
	defaultBaseURL        = "https://ec.europa.eu/eurostat/api/dissemination/statistics/1.0/data/"
	defaultFormatParam    = "format"
	defaultFormatValue    = "JSON"
	defaultLangParam      = "lang"
	defaultLangValue      = "EN"
	defaultGeoParam       = "geo"
	defaultTimeoutSeconds = 20
	defaultUserAgent      = "macrobrief/1.0"
)

type Config struct {
	BaseURL     string
	FormatParam string
	FormatValue string
	LangParam   string
	LangValue   string
	GeoParam    string
	Timeout     time.Duration
	UserAgent   string
}

type Provider struct {
	config Config
	client *http.Client
}

func New() (*Provider, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("eurostat: invalid base url: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/"
	if cfg.FormatParam == "" {
		cfg.FormatParam = defaultFormatParam
	}
	if cfg.FormatValue == "" {
		cfg.FormatValue = defaultFormatValue
	}
	if cfg.LangParam == "" {
		cfg.LangParam = defaultLangParam
	}
	if cfg.LangValue == "" {
		cfg.LangValue = defaultLangValue
	}
	if cfg.GeoParam == "" {
		cfg.GeoParam = defaultGeoParam
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Provider{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func ConfigFromEnv() (Config, error) {
	return Config{
		BaseURL:     envconfig.Get("EUROSTAT_BASE_URL", defaultBaseURL),
		FormatValue: envconfig.Get("EUROSTAT_FORMAT", defaultFormatValue),
		LangValue:   envconfig.Get("EUROSTAT_LANG", defaultLangValue),
		Timeout:     envconfig.Seconds("EUROSTAT_TIMEOUT_SECONDS", defaultTimeoutSeconds),
		UserAgent:   envconfig.Get("EUROSTAT_USER_AGENT", defaultUserAgent),
	}, nil
}

func (p *Provider) Name() string {
	return "eurostat"
}

// FetchSeries issues one request against the dataset endpoint and returns the
// country's series from query.CutoffYear onwards. Partial results are never
// returned.
func (p *Provider) FetchSeries(ctx context.Context, query providers.Query) (model.Series, error) {
	dataset := strings.TrimSpace(query.Dataset)
	if dataset == "" {
		return nil, fmt.Errorf("eurostat: %w: dataset is required", model.ErrInvalidRequest)
	}
	if !query.Country.Valid() {
		return nil, fmt.Errorf("eurostat: %w: invalid country code %q", model.ErrInvalidRequest, query.Country)
	}

	body, err := p.doRequest(ctx, dataset, p.params(query))
	if err != nil {
		return nil, err
	}

	series, err := parseSeries(body, query.CutoffYear)
	if err != nil {
		return nil, fmt.Errorf("eurostat: %s: %w", dataset, err)
	}

	klog.FromContext(ctx).V(2).Info("eurostat series fetched",
		"dataset", dataset, "country", query.Country, "cutoff", query.CutoffYear, "points", len(series))
	return series, nil
}

func (p *Provider) params(query providers.Query) url.Values {
	params := url.Values{}
	params.Set(p.config.FormatParam, p.config.FormatValue)
	params.Set(p.config.LangParam, p.config.LangValue)
	for key, value := range query.Filters {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		params.Set(key, strings.TrimSpace(value))
	}
	params.Set(p.config.GeoParam, query.Country.String())
	return params
}

func (p *Provider) doRequest(ctx context.Context, dataset string, params url.Values) ([]byte, error) {
	endpoint := p.config.BaseURL + url.PathEscape(dataset)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	klog.FromContext(ctx).V(4).Info("eurostat request", "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("eurostat: %w: %w", model.ErrRetrieval, err)
	}
	req.Header.Set("Accept", "application/json")
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eurostat: %w: %w", model.ErrRetrieval, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eurostat: %w: %w", model.ErrRetrieval, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("eurostat: %w (%s): %s", model.ErrRetrieval, resp.Status, errorMessage(body))
	}
	return body, nil
}

type apiError struct {
	Status int    `json:"status"`
	ID     int    `json:"id"`
	Label  string `json:"label"`
}

// errorMessage extracts the label of a Eurostat error body, which is either
// {"error":{...}} or {"error":[{...}]}.
func errorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var single apiError
		if err := json.Unmarshal(envelope.Error, &single); err == nil && single.Label != "" {
			return single.Label
		}
		var list []apiError
		if err := json.Unmarshal(envelope.Error, &list); err == nil {
			labels := make([]string, 0, len(list))
			for _, entry := range list {
				if entry.Label != "" {
					labels = append(labels, entry.Label)
				}
			}
			if len(labels) > 0 {
				return strings.Join(labels, "; ")
			}
		}
	}
	return truncate(strings.TrimSpace(string(body)), 200)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ providers.Provider = (*Provider)(nil)
