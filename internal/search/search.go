// package search shells out to yt-dlp for YouTube search and metadata lookup.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cliptune/internal/shared"
)

// Result is one YouTube search hit.
type Result struct {
	Title       string `json:"title"`
	Uploader    string `json:"uploader"`
	Duration    int    `json:"duration_seconds"`
	ViewCount   int64  `json:"view_count"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at,omitempty"`
}

// runFunc executes a command and returns its stdout. Swapped out in tests.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client wraps the yt-dlp binary.
type Client struct {
	binary  string
	timeout time.Duration
	logger  *log.Logger
	run     runFunc
}

// NewClient creates a search client from config.
func NewClient(cfg shared.SearchConfig, logger *log.Logger) *Client {
	binary := cfg.Binary
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Client{
		binary:  binary,
		timeout: cfg.Timeout(),
		logger:  logger,
		run:     runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%v: %s", err, firstLine(exitErr.Stderr))
		}
		return nil, err
	}
	return out, nil
}

func firstLine(b []byte) string {
	if idx := bytes.IndexByte(b, '\n'); idx >= 0 {
		b = b[:idx]
	}
	return strings.TrimSpace(string(b))
}

// ytMetadata is the subset of yt-dlp's JSON output the resolver cares about.
type ytMetadata struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	Duration   float64 `json:"duration"`
	ViewCount  int64   `json:"view_count"`
	UploadDate string  `json:"upload_date"`
}

func (m ytMetadata) toResult() Result {
	uploader := m.Uploader
	if uploader == "" {
		uploader = m.Channel
	}
	return Result{
		Title:       m.Title,
		Uploader:    uploader,
		Duration:    int(m.Duration),
		ViewCount:   m.ViewCount,
		URL:         fmt.Sprintf("https://youtube.com/watch?v=%s", m.ID),
		PublishedAt: m.UploadDate,
	}
}

// Available checks that the yt-dlp binary can be executed.
func (c *Client) Available(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.run(ctx, c.binary, "--version"); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrToolUnavailable, c.binary, err)
	}
	return nil
}

// Search runs a YouTube search and returns up to limit results. A missing
// binary is reported as tool-unavailable so callers can fail the whole job;
// any other failure is a tool error scoped to this one query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"--dump-json",
		"--playlist-end", fmt.Sprintf("%d", limit),
		"--no-download",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	}

	out, err := c.run(ctx, c.binary, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrToolUnavailable, c.binary, err)
		}
		return nil, fmt.Errorf("%w: search %q: %v", shared.ErrToolError, query, err)
	}

	results := parseMetadataLines(out, c.logger)
	c.logger.Debug("search complete", "query", query, "results", len(results))
	return results, nil
}

// Lookup fetches metadata for a single video URL.
func (c *Client) Lookup(ctx context.Context, url string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.run(ctx, c.binary, "--dump-json", "--no-download", url)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrToolUnavailable, c.binary, err)
		}
		return nil, fmt.Errorf("%w: lookup %s: %v", shared.ErrToolError, url, err)
	}

	results := parseMetadataLines(out, c.logger)
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no metadata for %s", shared.ErrToolError, url)
	}
	return &results[0], nil
}

// ListPlaylist enumerates the entries of a playlist URL without resolving
// each video. Flat extraction keeps this fast for large playlists.
func (c *Client) ListPlaylist(ctx context.Context, url string) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.run(ctx, c.binary, "--flat-playlist", "--dump-json", url)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrToolUnavailable, c.binary, err)
		}
		return nil, fmt.Errorf("%w: playlist %s: %v", shared.ErrToolError, url, err)
	}

	return parseMetadataLines(out, c.logger), nil
}

// parseMetadataLines decodes yt-dlp's one-JSON-object-per-line output,
// skipping lines that fail to parse.
func parseMetadataLines(out []byte, logger *log.Logger) []Result {
	var results []Result
	for _, line := range bytes.Split(out, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var meta ytMetadata
		if err := json.Unmarshal(line, &meta); err != nil {
			logger.Debug("skipping unparseable metadata line", "error", err)
			continue
		}
		if meta.ID == "" {
			continue
		}
		results = append(results, meta.toResult())
	}
	return results
}
