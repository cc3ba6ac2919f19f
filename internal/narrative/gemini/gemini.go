package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"macrobrief/internal/envconfig"
	"macrobrief/internal/model"
	"macrobrief/internal/narrative"
)

const (
	defaultEndpoint       = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel          = "gemini-2.0-flash"
	defaultTemperature    = 0.6
	defaultTimeoutSeconds = 60
)

type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type Client struct {
	config Config
	client *http.Client
}

func New() (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is required (GEMINI_API_KEY)")
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = defaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func ConfigFromEnv() (Config, error) {
	return Config{
		Endpoint:    envconfig.Get("GEMINI_ENDPOINT", defaultEndpoint),
		APIKey:      envconfig.Get("GEMINI_API_KEY", ""),
		Model:       envconfig.Get("GEMINI_MODEL", defaultModel),
		Temperature: envconfig.Float("GEMINI_TEMPERATURE", defaultTemperature),
		Timeout:     envconfig.Seconds("GEMINI_TIMEOUT_SECONDS", defaultTimeoutSeconds),
	}, nil
}

func (c *Client) Name() string {
	return "gemini"
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: c.config.Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: %w: %w", model.ErrNarrativeGeneration, err)
	}

	klog.FromContext(ctx).V(2).Info("requesting completion", "provider", c.Name(), "model", c.config.Model, "promptBytes", len(prompt))

	body, err := c.doRequest(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("gemini: %w: %w", model.ErrNarrativeGeneration, err)
	}

	var response generateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("gemini: %w: %w", model.ErrNarrativeGeneration, err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("gemini: %w: error %d: %s", model.ErrNarrativeGeneration, response.Error.Code, response.Error.Message)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: %w: empty response", model.ErrNarrativeGeneration)
	}

	// Long answers can arrive split across several parts.
	var b strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini: %w: empty completion", model.ErrNarrativeGeneration)
	}
	return text, nil
}

func (c *Client) doRequest(ctx context.Context, payload []byte) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s:generateContent", c.config.Endpoint, c.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ narrative.Generator = (*Client)(nil)
