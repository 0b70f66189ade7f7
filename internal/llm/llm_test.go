package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/cliptune/internal/shared"
)

func TestNew(t *testing.T) {
	tc := []struct {
		name     string
		cfg      shared.LLMConfig
		provider string
		err      error
	}{
		{
			name:     "defaults to ollama",
			cfg:      shared.LLMConfig{},
			provider: "ollama",
		},
		{
			name:     "explicit ollama",
			cfg:      shared.LLMConfig{Provider: "ollama", Model: "llama3.2"},
			provider: "ollama",
		},
		{
			name:     "openai with key",
			cfg:      shared.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "sk-test"},
			provider: "openai",
		},
		{
			name: "openai without key",
			cfg:  shared.LLMConfig{Provider: "openai"},
			err:  shared.ErrMissingCredentials,
		},
		{
			name:     "gemini with key",
			cfg:      shared.LLMConfig{Provider: "gemini", Model: "gemini-2.0-flash", APIKey: "g-test"},
			provider: "gemini",
		},
		{
			name:     "anthropic with key",
			cfg:      shared.LLMConfig{Provider: "anthropic", Model: "claude-sonnet-4-5", APIKey: "a-test"},
			provider: "anthropic",
		},
		{
			name: "unknown provider",
			cfg:  shared.LLMConfig{Provider: "cohere"},
			err:  shared.ErrUnknownProvider,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.cfg)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.Name() != tt.provider {
				t.Errorf("Name() = %s, want %s", client.Name(), tt.provider)
			}
		})
	}
}

func TestOllamaCompleteJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Stream {
			t.Error("expected stream false")
		}
		if req.Model != "llama3.2" {
			t.Errorf("expected model llama3.2, got %s", req.Model)
		}
		if req.Options.NumCtx != 4096 {
			t.Errorf("expected num_ctx 4096, got %d", req.Options.NumCtx)
		}
		if req.Options.Temperature != 0.1 {
			t.Errorf("expected temperature 0.1, got %f", req.Options.Temperature)
		}

		json.NewEncoder(w).Encode(ollamaResponse{
			Response: "Here you go: {\"queries\": [\"a\", \"b\"]}",
			Done:     true,
		})
	}))
	defer server.Close()

	client := NewOllama(shared.LLMConfig{BaseURL: server.URL, Model: "llama3.2", NumCtx: 4096})
	raw, err := client.CompleteJSON(context.Background(), "generate queries")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("failed to parse extracted JSON: %v", err)
	}
	if len(parsed.Queries) != 2 {
		t.Errorf("expected 2 queries, got %d", len(parsed.Queries))
	}
}

func TestOllamaServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewOllama(shared.LLMConfig{BaseURL: server.URL, Model: "missing"})
	_, err := client.CompleteJSON(context.Background(), "prompt")
	if !errors.Is(err, shared.ErrProvider) {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestOpenAICompleteJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", auth)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Error("expected json_object response format")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"confidence": 0.85}`}},
			},
		})
	}))
	defer server.Close()

	client := NewOpenAI(shared.LLMConfig{BaseURL: server.URL, Model: "gpt-4o-mini", APIKey: "sk-test"})
	raw, err := client.CompleteJSON(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"confidence": 0.85}` {
		t.Errorf("unexpected payload %s", raw)
	}
}

func TestGeminiCompleteJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.0-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if key := r.URL.Query().Get("key"); key != "g-test" {
			t.Errorf("unexpected api key %q", key)
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.GenerationConfig.TopK != 1 {
			t.Errorf("expected topK 1, got %d", req.GenerationConfig.TopK)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": `{"queries": ["q"]}`}}}},
			},
		})
	}))
	defer server.Close()

	client := NewGemini(shared.LLMConfig{BaseURL: server.URL, Model: "gemini-2.0-flash", APIKey: "g-test"})
	raw, err := client.CompleteJSON(context.Background(), "generate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"queries": ["q"]}` {
		t.Errorf("unexpected payload %s", raw)
	}
}

func TestAnthropicCompleteJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if key := r.Header.Get("x-api-key"); key != "a-test" {
			t.Errorf("unexpected api key %q", key)
		}
		if version := r.Header.Get("anthropic-version"); version != anthropicVersion {
			t.Errorf("unexpected version %q", version)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": `{"confidence": 0.9}`},
			},
		})
	}))
	defer server.Close()

	client := NewAnthropic(shared.LLMConfig{BaseURL: server.URL, Model: "claude-sonnet-4-5", APIKey: "a-test"})
	raw, err := client.CompleteJSON(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"confidence": 0.9}` {
		t.Errorf("unexpected payload %s", raw)
	}
}
