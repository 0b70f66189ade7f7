// package notify pushes download outcomes to an ntfy topic so a phone or
// desktop hears about finished songs without watching the terminal.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/cliptune/internal/shared"
)

const userAgent = "cliptune/0.1.0"

// Service is the notification surface the queue worker publishes to.
type Service interface {
	Publish(ctx context.Context, title, message string, tags ...string) error
}

// NewService builds a notifier backed by ntfy when a topic is configured.
// Without a topic it returns a noop, so callers never branch.
func NewService(cfg shared.NotificationsConfig) Service {
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return noopService{}
	}

	server := strings.TrimSpace(cfg.ServerURL)
	if server == "" {
		server = "https://ntfy.sh"
	}

	return &ntfyService{
		endpoint: strings.TrimSuffix(server, "/") + "/" + topic,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

// Publish posts one notification. The message rides in the request body;
// title and tags travel as headers per the ntfy publish API.
func (n *ntfyService) Publish(ctx context.Context, title, message string, tags ...string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("failed to build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title != "" {
		req.Header.Set("Title", title)
	}
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: ntfy returned %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, string, string, ...string) error { return nil }
