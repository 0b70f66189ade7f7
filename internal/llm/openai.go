package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/cliptune/internal/shared"
)

const defaultOpenAIURL = "https://api.openai.com"

// OpenAI talks to the chat completions API, or any endpoint that speaks
// the same protocol when base_url is overridden.
type OpenAI struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewOpenAI creates an OpenAI client from config.
func NewOpenAI(cfg shared.LLMConfig) *OpenAI {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" || baseURL == defaultOllamaURL {
		baseURL = defaultOpenAIURL
	}
	return &OpenAI{
		baseURL: baseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

// Name identifies the provider.
func (o *OpenAI) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    float64             `json:"temperature"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// CompleteJSON sends the prompt as a single user message with JSON response
// formatting requested.
func (o *OpenAI) CompleteJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	body := chatRequest{
		Model:          o.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    0.1,
		ResponseFormat: &chatResponseFormat{Type: "json_object"},
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var resp chatResponse
	url := fmt.Sprintf("%s/v1/chat/completions", o.baseURL)
	if err := doRequest(ctx, o.client, http.MethodPost, url, headers, body, &resp); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: %w: empty choices", shared.ErrSchema)
	}

	return ExtractJSON(resp.Choices[0].Message.Content)
}
