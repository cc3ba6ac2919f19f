package openai

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
	defaultBaseURL        = "https://api.openai.com/v1/"
	defaultModel          = "gpt-4o"
	defaultTemperature    = 0.6
	defaultTimeoutSeconds = 60
	defaultUserAgent      = "macrobrief/1.0"
)

type Config struct {
	BaseURL      string
	APIKey       string
	Organization string
	Model        string
	Temperature  float64
	Timeout      time.Duration
	UserAgent    string
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
		return nil, errors.New("openai: api key is required (OPENAI_API_KEY)")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/"
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func ConfigFromEnv() (Config, error) {
	return Config{
		BaseURL:      envconfig.Get("OPENAI_BASE_URL", defaultBaseURL),
		APIKey:       envconfig.Get("OPENAI_API_KEY", ""),
		Organization: envconfig.Get("OPENAI_ORGANIZATION", ""),
		Model:        envconfig.Get("OPENAI_MODEL", defaultModel),
		Temperature:  envconfig.Float("OPENAI_TEMPERATURE", defaultTemperature),
		Timeout:      envconfig.Seconds("OPENAI_TIMEOUT_SECONDS", defaultTimeoutSeconds),
		UserAgent:    envconfig.Get("OPENAI_USER_AGENT", defaultUserAgent),
	}, nil
}

func (c *Client) Name() string {
	return "openai"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// Generate sends prompt as a single user message and returns the trimmed
// completion.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w: %w", model.ErrNarrativeGeneration, err)
	}

	klog.FromContext(ctx).V(2).Info("requesting completion", "provider", c.Name(), "model", c.config.Model, "promptBytes", len(prompt))

	body, err := c.doRequest(ctx, "chat/completions", payload)
	if err != nil {
		return "", fmt.Errorf("openai: %w: %w", model.ErrNarrativeGeneration, err)
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("openai: %w: %w", model.ErrNarrativeGeneration, err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("openai: %w: %s", model.ErrNarrativeGeneration, response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: empty response", model.ErrNarrativeGeneration)
	}
	text := strings.TrimSpace(response.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai: %w: empty completion", model.ErrNarrativeGeneration)
	}
	return text, nil
}

func (c *Client) doRequest(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if c.config.Organization != "" {
		req.Header.Set("OpenAI-Organization", c.config.Organization)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var envelope chatResponse
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
			return nil, fmt.Errorf("request failed (%s): %s", resp.Status, envelope.Error.Message)
		}
		return nil, fmt.Errorf("request failed (%s): %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

var _ narrative.Generator = (*Client)(nil)
