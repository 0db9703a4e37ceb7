package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resume-builder/internal/llm"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func withTestServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	prev := apiURL
	apiURL = srv.URL
	t.Cleanup(func() {
		apiURL = prev
		srv.Close()
	})
}

func TestCompleteSendsJSONModeRequest(t *testing.T) {
	var got chatRequest
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"c1","choices":[{"message":{"role":"assistant","content":" {\"keywords\":[\"go\"]} "}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})

	client, err := NewClient("sk-test", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.Complete(context.Background(), llm.Request{PromptID: "keywords_v1", System: "sys", User: "posting"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"keywords":["go"]}` {
		t.Fatalf("unexpected content %q", out)
	}
	if got.ResponseFormat.Type != "json_object" || got.Temperature == nil || *got.Temperature != 0 {
		t.Fatalf("unexpected request shape: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "posting" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestCompleteOmitsTemperatureForGPT5(t *testing.T) {
	var raw map[string]any
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	})

	client, _ := NewClient("sk-test", "gpt-5-mini")
	if _, err := client.Complete(context.Background(), llm.Request{User: "x"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, ok := raw["temperature"]; ok {
		t.Fatalf("temperature must be omitted for gpt-5 models")
	}
}

func TestCompleteSurfacesHTTPStatus(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})

	client, _ := NewClient("sk-test", "gpt-4o")
	_, err := client.Complete(context.Background(), llm.Request{User: "x"})
	if err == nil || !strings.Contains(err.Error(), "http status 503") {
		t.Fatalf("expected status error, got %v", err)
	}
	if !llm.ShouldRetry(err) {
		t.Fatalf("503 should be retryable")
	}
}

func TestNewClientRequiresModelAndKey(t *testing.T) {
	if _, err := NewClient("sk", ""); err == nil {
		t.Fatalf("expected error for missing model")
	}
	if _, err := NewClient("", "gpt-4o"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
