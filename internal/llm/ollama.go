package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/cliptune/internal/shared"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama talks to a local ollama server over its generate API.
type Ollama struct {
	baseURL string
	model   string
	numCtx  int
	client  *http.Client
}

// NewOllama creates an ollama client from config. An empty base URL falls
// back to the local default.
func NewOllama(cfg shared.LLMConfig) *Ollama {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &Ollama{
		baseURL: baseURL,
		model:   cfg.Model,
		numCtx:  cfg.NumCtx,
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

// Name identifies the provider.
func (o *Ollama) Name() string { return "ollama" }

type ollamaOptions struct {
	NumCtx      int     `json:"num_ctx,omitempty"`
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// CompleteJSON sends the prompt to the generate endpoint and extracts the
// JSON payload from the completion. Temperature is pinned low because the
// caller wants structured output, not creativity.
func (o *Ollama) CompleteJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	body := ollamaRequest{
		Model:  o.model,
		Prompt: prompt,
		Options: ollamaOptions{
			NumCtx:      o.numCtx,
			NumPredict:  1000,
			Temperature: 0.1,
		},
	}

	var resp ollamaResponse
	url := fmt.Sprintf("%s/api/generate", o.baseURL)
	if err := doRequest(ctx, o.client, http.MethodPost, url, nil, body, &resp); err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	return ExtractJSON(resp.Response)
}
