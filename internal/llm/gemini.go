package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/cliptune/internal/shared"
)

const defaultGeminiURL = "https://generativelanguage.googleapis.com"

// Gemini talks to the Google generative language API.
type Gemini struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewGemini creates a Gemini client from config.
func NewGemini(cfg shared.LLMConfig) *Gemini {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" || baseURL == defaultOllamaURL {
		baseURL = defaultGeminiURL
	}
	return &Gemini{
		baseURL: baseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

// Name identifies the provider.
func (g *Gemini) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// CompleteJSON sends the prompt to the generateContent endpoint. Sampling
// is pinned nearly deterministic so repeated analyses of the same results
// stay stable.
func (g *Gemini) CompleteJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.3,
			TopK:            1,
			TopP:            0.95,
			MaxOutputTokens: 1000,
		},
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, g.model, url.QueryEscape(g.apiKey))

	var resp geminiResponse
	if err := doRequest(ctx, g.client, http.MethodPost, endpoint, nil, body, &resp); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: %w: empty candidates", shared.ErrSchema)
	}

	return ExtractJSON(resp.Candidates[0].Content.Parts[0].Text)
}
