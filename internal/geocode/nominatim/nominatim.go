package nominatim

import (
	"bytes"
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
	"macrobrief/internal/geocode"
	"macrobrief/internal/model"
)

const (
	defaultBaseURL        = "https://nominatim.openstreetmap.org/"
	defaultSearchPath     = "search"
	defaultFormatValue    = "json"
	defaultLimit          = 1
	defaultTimeoutSeconds = 20
	defaultUserAgent      = "macrobrief/1.0"
)

type Config struct {
	BaseURL    string
	SearchPath string
	Email      string
	Language   string
	Timeout    time.Duration
	UserAgent  string
}

type Resolver struct {
	config Config
	client *http.Client
}

func New() (*Resolver, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) (*Resolver, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("nominatim: invalid base url: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/"
	if strings.TrimSpace(cfg.SearchPath) == "" {
		cfg.SearchPath = defaultSearchPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Resolver{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func ConfigFromEnv() (Config, error) {
	return Config{
		BaseURL:    envconfig.Get("NOMINATIM_BASE_URL", defaultBaseURL),
		SearchPath: envconfig.Get("NOMINATIM_SEARCH_PATH", defaultSearchPath),
		Email:      envconfig.Get("NOMINATIM_EMAIL", ""),
		Language:   envconfig.Get("NOMINATIM_LANGUAGE", ""),
		Timeout:    envconfig.Seconds("NOMINATIM_TIMEOUT_SECONDS", defaultTimeoutSeconds),
		UserAgent:  envconfig.Get("NOMINATIM_USER_AGENT", defaultUserAgent),
	}, nil
}

type candidate struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// Resolve looks up address and returns the country code of the first match.
// A failed request and an empty result both yield ErrAddressNotResolved; the
// cause is kept in the error text only.
func (r *Resolver) Resolve(ctx context.Context, address string) (model.CountryCode, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("nominatim: %w: empty address", model.ErrAddressNotResolved)
	}

	log := klog.FromContext(ctx)
	body, err := r.doRequest(ctx, address)
	if err != nil {
		log.V(1).Info("geocoding lookup failed", "address", address, "error", err)
		return "", fmt.Errorf("nominatim: %w: %v", model.ErrAddressNotResolved, err)
	}

	var candidates []candidate
	decoder := json.NewDecoder(bytes.NewReader(body))
	if err := decoder.Decode(&candidates); err != nil {
		log.V(1).Info("geocoding response not decodable", "address", address, "error", err)
		return "", fmt.Errorf("nominatim: %w: %v", model.ErrAddressNotResolved, err)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("nominatim: %w: no match for %q", model.ErrAddressNotResolved, address)
	}

	code := model.NewCountryCode(candidates[0].Address["country_code"])
	if code == "" {
		return "", fmt.Errorf("nominatim: %w: match has no country code", model.ErrAddressNotResolved)
	}

	log.V(2).Info("address resolved", "address", address, "match", candidates[0].DisplayName, "country", code)
	return code, nil
}

func (r *Resolver) doRequest(ctx context.Context, address string) ([]byte, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", defaultFormatValue)
	params.Set("limit", fmt.Sprint(defaultLimit))
	params.Set("addressdetails", "1")
	if r.config.Email != "" {
		params.Set("email", r.config.Email)
	}
	if r.config.Language != "" {
		params.Set("accept-language", r.config.Language)
	}
	endpoint := r.config.BaseURL + strings.TrimLeft(r.config.SearchPath, "/") + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.config.UserAgent != "" {
		req.Header.Set("User-Agent", r.config.UserAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("request failed (%s): %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

var _ geocode.Resolver = (*Resolver)(nil)
