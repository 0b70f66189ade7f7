// package llm provides JSON-speaking clients for language model providers.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/cliptune/internal/shared"
)

// Client is implemented by providers that can answer a prompt with JSON.
// Implementations extract the first JSON value from the completion, so
// prompts should instruct the model to return JSON only.
type Client interface {
	// CompleteJSON sends the prompt and returns the JSON payload of the reply.
	CompleteJSON(ctx context.Context, prompt string) (json.RawMessage, error)
	// Name identifies the provider for logs and error messages.
	Name() string
}

// New constructs the provider named by cfg. The provider is chosen once
// here; callers hold the returned Client for their lifetime rather than
// re-reading configuration per call.
func New(cfg shared.LLMConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		return NewOllama(cfg), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: openai requires an API key", shared.ErrMissingCredentials)
		}
		return NewOpenAI(cfg), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: gemini requires an API key", shared.ErrMissingCredentials)
		}
		return NewGemini(cfg), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: anthropic requires an API key", shared.ErrMissingCredentials)
		}
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownProvider, cfg.Provider)
	}
}

// doRequest executes an HTTP request with a JSON body and decodes the JSON
// response into result. Non-2xx responses are reported as provider errors
// with the response body attached.
func doRequest(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProvider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: API error (status %d): %s", shared.ErrProvider, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
