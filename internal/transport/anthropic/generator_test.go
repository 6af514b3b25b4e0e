package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterGenerationMetrics()
	os.Exit(m.Run())
}

func newServer(t *testing.T, status int, body any, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("unexpected api key header: %q", r.Header.Get("X-Api-Key"))
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGenerator(url string) *Generator {
	return NewGenerator(&Config{
		APIKey:      "test-key",
		BaseURL:     url,
		Model:       "claude-sonnet-4-5",
		MaxTokens:   500,
		Temperature: 0.7,
		Logger:      zap.NewNop(),
	})
}

func TestGenerator_Generate(t *testing.T) {
	var seen map[string]any
	srv := newServer(t, http.StatusOK, map[string]any{
		"id":    "msg_1",
		"type":  "message",
		"role":  "assistant",
		"model": "claude-sonnet-4-5",
		"content": []map[string]any{
			{"type": "text", "text": "Matt led the agile transformation "},
			{"type": "text", "text": "at Nationwide."},
		},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 200, "output_tokens": 40},
	}, &seen)

	res, err := newTestGenerator(srv.URL).Generate(context.Background(), domain.GenerationRequest{
		System:  "You are a portfolio assistant.",
		Context: "Story 1:",
		Query:   "Agile work?",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Text != "Matt led the agile transformation at Nationwide." {
		t.Errorf("unexpected text %q", res.Text)
	}
	if res.PromptTokens != 200 || res.CompletionTokens != 40 || res.TotalTokens != 240 {
		t.Errorf("unexpected usage %+v", res)
	}
	if _, ok := seen["system"]; !ok {
		t.Error("expected system instructions in request")
	}
}

func TestGenerator_EmptyContent(t *testing.T) {
	srv := newServer(t, http.StatusOK, map[string]any{
		"id": "msg_2", "type": "message", "role": "assistant",
		"content": []map[string]any{},
		"usage":   map[string]any{"input_tokens": 1, "output_tokens": 0},
	}, nil)

	_, err := newTestGenerator(srv.URL).Generate(context.Background(), domain.GenerationRequest{Query: "q"})
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected ErrGenerationProviderError, got %v", err)
	}
}

func TestGenerator_APIError(t *testing.T) {
	srv := newServer(t, http.StatusTooManyRequests, map[string]any{
		"type":  "error",
		"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
	}, nil)

	_, err := newTestGenerator(srv.URL).Generate(context.Background(), domain.GenerationRequest{Query: "q"})
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected ErrGenerationProviderError, got %v", err)
	}
}
