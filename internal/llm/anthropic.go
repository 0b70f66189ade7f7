package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/cliptune/internal/shared"
)

const (
	defaultAnthropicURL = "https://api.anthropic.com"
	anthropicVersion    = "2023-06-01"
)

// Anthropic talks to the messages API.
type Anthropic struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewAnthropic creates an Anthropic client from config.
func NewAnthropic(cfg shared.LLMConfig) *Anthropic {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" || baseURL == defaultOllamaURL {
		baseURL = defaultAnthropicURL
	}
	return &Anthropic{
		baseURL: baseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

// Name identifies the provider.
func (a *Anthropic) Name() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// CompleteJSON sends the prompt as a single user message.
func (a *Anthropic) CompleteJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	body := anthropicRequest{
		Model:     a.model,
		MaxTokens: 1000,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	url := fmt.Sprintf("%s/v1/messages", a.baseURL)
	if err := doRequest(ctx, a.client, http.MethodPost, url, headers, body, &resp); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return ExtractJSON(block.Text)
		}
	}

	return nil, fmt.Errorf("anthropic: %w: no text content", shared.ErrSchema)
}
