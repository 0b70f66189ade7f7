// package agent drives the iterative loop that confirms a song target
// against real YouTube results: the model proposes queries, yt-dlp runs
// them, and the model judges the combined results.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cliptune/internal/llm"
	"github.com/desertthunder/cliptune/internal/resolve"
	"github.com/desertthunder/cliptune/internal/search"
	"github.com/desertthunder/cliptune/internal/shared"
)

const maxQueriesPerIteration = 4

// Failure records one rejected query with the analyzer's reasoning, fed
// back into later query generation as an explicit list rather than
// accumulated prompt state.
type Failure struct {
	Query     string `json:"query"`
	Reasoning string `json:"reasoning"`
}

// Analysis is the analyzer's verdict over one iteration's results.
// Confidence is always evaluated fresh; it is never averaged with earlier
// iterations.
type Analysis struct {
	Query      string         `json:"query"`
	Chosen     *search.Result `json:"chosen,omitempty"`
	Confidence float64        `json:"confidence"`
	Rationale  string         `json:"rationale"`
}

// Attempt records one full iteration of the loop.
type Attempt struct {
	Iteration int             `json:"iteration"`
	Queries   []string        `json:"queries"`
	Results   []search.Result `json:"results,omitempty"`
	Analysis  Analysis        `json:"analysis"`
	Analyzed  bool            `json:"analyzed"`
}

// Outcome is the terminal result of a confirmation run: either a resolved
// download URL or exhaustion with the best-scoring attempt retained.
type Outcome struct {
	Resolved   bool      `json:"resolved"`
	URL        string    `json:"url,omitempty"`
	Confidence float64   `json:"confidence"`
	Best       *Attempt  `json:"best,omitempty"`
	Attempts   []Attempt `json:"attempts"`
}

// Generator asks the language model for search queries.
type Generator struct {
	client llm.Client
	logger *log.Logger
}

// NewGenerator creates a query generator on the given provider.
func NewGenerator(client llm.Client, logger *log.Logger) *Generator {
	return &Generator{client: client, logger: logger}
}

// Queries produces 2-4 search strings for the target. The first iteration
// asks for broad variations; once prior failures exist the prompt pivots to
// refinement. Malformed output earns one retry with a strict schema prompt,
// then the schema error is returned for the caller to absorb.
func (g *Generator) Queries(ctx context.Context, target resolve.Target, prior []Failure) ([]string, error) {
	prompt := initialQueriesPrompt(target.Anchor)
	if len(prior) > 0 {
		prompt = refinedQueriesPrompt(target.Anchor, prior)
	}

	raw, err := g.client.CompleteJSON(ctx, prompt)
	if err == nil {
		queries, derr := decodeQueries(raw)
		if derr == nil {
			return queries, nil
		}
		err = derr
	}
	if !errors.Is(err, shared.ErrSchema) {
		return nil, fmt.Errorf("query generation: %w", err)
	}

	g.logger.Warn("malformed query response, retrying with strict schema", "provider", g.client.Name(), "error", err)

	raw, err = g.client.CompleteJSON(ctx, strictQueriesPrompt(target.Anchor))
	if err != nil {
		return nil, fmt.Errorf("query generation retry: %w", err)
	}
	queries, err := decodeQueries(raw)
	if err != nil {
		return nil, fmt.Errorf("query generation retry: %w", err)
	}
	return queries, nil
}

// decodeQueries accepts both shapes the prompts ask for: a bare JSON array
// and a {"queries": [...]} object.
func decodeQueries(raw json.RawMessage) ([]string, error) {
	var queries []string
	if err := json.Unmarshal(raw, &queries); err != nil {
		var wrapped struct {
			Queries []string `json:"queries"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: expected query array, got %s", shared.ErrSchema, truncateRaw(raw))
		}
		queries = wrapped.Queries
	}

	cleaned := make([]string, 0, len(queries))
	seen := make(map[string]bool)
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		cleaned = append(cleaned, q)
		if len(cleaned) == maxQueriesPerIteration {
			break
		}
	}

	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: empty query list", shared.ErrSchema)
	}
	return cleaned, nil
}

func truncateRaw(raw json.RawMessage) string {
	s := string(raw)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// Analyzer asks the language model to judge search results.
type Analyzer struct {
	client llm.Client
	logger *log.Logger
}

// NewAnalyzer creates a result analyzer on the given provider.
func NewAnalyzer(client llm.Client, logger *log.Logger) *Analyzer {
	return &Analyzer{client: client, logger: logger}
}

type analysisPayload struct {
	Query               string  `json:"query"`
	Reasoning           string  `json:"reasoning"`
	SelectedResultIndex int     `json:"selected_result_index"`
	Confidence          float64 `json:"confidence"`
}

// Analyze scores the iteration's results against the target and picks the
// best match, if any. Like query generation, malformed output earns one
// strict-schema retry before the error is surfaced.
func (a *Analyzer) Analyze(ctx context.Context, target resolve.Target, results []search.Result, prior []Failure) (Analysis, error) {
	raw, err := a.client.CompleteJSON(ctx, analysisPrompt(target.Anchor, results, prior))
	if err == nil {
		analysis, derr := decodeAnalysis(raw, results)
		if derr == nil {
			return analysis, nil
		}
		err = derr
	}
	if !errors.Is(err, shared.ErrSchema) {
		return Analysis{}, fmt.Errorf("analysis: %w", err)
	}

	a.logger.Warn("malformed analysis response, retrying with strict schema", "provider", a.client.Name(), "error", err)

	raw, err = a.client.CompleteJSON(ctx, strictAnalysisPrompt(target.Anchor, results))
	if err != nil {
		return Analysis{}, fmt.Errorf("analysis retry: %w", err)
	}
	analysis, err := decodeAnalysis(raw, results)
	if err != nil {
		return Analysis{}, fmt.Errorf("analysis retry: %w", err)
	}
	return analysis, nil
}

func decodeAnalysis(raw json.RawMessage, results []search.Result) (Analysis, error) {
	var payload analysisPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Analysis{}, fmt.Errorf("%w: expected analysis object, got %s", shared.ErrSchema, truncateRaw(raw))
	}

	analysis := Analysis{
		Query:      payload.Query,
		Confidence: clampConfidence(payload.Confidence),
		Rationale:  payload.Reasoning,
	}

	if idx := payload.SelectedResultIndex; idx >= 0 && idx < len(results) {
		chosen := results[idx]
		analysis.Chosen = &chosen
	}

	return analysis, nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
