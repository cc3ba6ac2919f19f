package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"macrobrief/internal/model"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-test:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "g-key" {
			t.Errorf("api key header = %q", r.Header.Get("x-goog-api-key"))
		}
		var request generateRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(request.Contents) != 1 || request.Contents[0].Parts[0].Text != "resume" {
			t.Errorf("contents = %+v", request.Contents)
		}
		if request.GenerationConfig.Temperature != 0.6 {
			t.Errorf("temperature = %v", request.GenerationConfig.Temperature)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"La inflación "},{"text":"se moderó.\n"}]}}]}`))
	}))
	defer server.Close()

	client, err := NewWithConfig(Config{Endpoint: server.URL + "/models/", APIKey: "g-key", Model: "gemini-test"})
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	text, err := client.Generate(context.Background(), "resume")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "La inflación se moderó." {
		t.Errorf("text = %q", text)
	}
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status", http.StatusForbidden, `{"error":{"code":403,"message":"denied"}}`, "api returned 403"},
		{"error envelope", http.StatusOK, `{"error":{"code":429,"message":"quota"}}`, "quota"},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, "empty response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewWithConfig(Config{Endpoint: server.URL, APIKey: "k"})
			if err != nil {
				t.Fatalf("NewWithConfig: %v", err)
			}
			_, err = client.Generate(context.Background(), "p")
			if !errors.Is(err, model.ErrNarrativeGeneration) {
				t.Fatalf("expected ErrNarrativeGeneration, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := NewWithConfig(Config{Endpoint: "http://localhost"}); err == nil {
		t.Error("expected error without api key")
	}
}
