package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cliptune/internal/resolve"
	"github.com/desertthunder/cliptune/internal/search"
	"github.com/desertthunder/cliptune/internal/shared"
)

// State names the coordinator's position in the loop.
type State int

const (
	StateSeeding State = iota
	StateQuerying
	StateSearching
	StateAnalyzing
	StateDeciding
	StateResolved
	StateExhausted
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case StateSeeding:
		return "seeding"
	case StateQuerying:
		return "querying"
	case StateSearching:
		return "searching"
	case StateAnalyzing:
		return "analyzing"
	case StateDeciding:
		return "deciding"
	case StateResolved:
		return "resolved"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// StateFunc observes state changes. It runs on the loop goroutine and must
// not block.
type StateFunc func(state State, iteration int, message string)

// Searcher is the slice of the search client the coordinator needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
}

// Coordinator runs the confirmation loop for one target at a time.
// Threshold and iteration ceiling come from configuration, never derived
// at runtime.
type Coordinator struct {
	generator       *Generator
	analyzer        *Analyzer
	searcher        Searcher
	threshold       float64
	maxIterations   int
	resultsPerQuery int
	logger          *log.Logger
	onState         StateFunc
}

// NewCoordinator wires the loop together. Zero config values fall back to
// the defaults: threshold 0.8, three iterations, ten results per query.
func NewCoordinator(generator *Generator, analyzer *Analyzer, searcher Searcher, cfg shared.AgentConfig, logger *log.Logger) *Coordinator {
	threshold := cfg.ConfidenceThreshold
	if threshold <= 0 {
		threshold = 0.8
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 3
	}
	resultsPerQuery := cfg.ResultsPerQuery
	if resultsPerQuery <= 0 {
		resultsPerQuery = 10
	}

	return &Coordinator{
		generator:       generator,
		analyzer:        analyzer,
		searcher:        searcher,
		threshold:       threshold,
		maxIterations:   maxIterations,
		resultsPerQuery: resultsPerQuery,
		logger:          logger,
	}
}

// OnState registers a state observer.
func (c *Coordinator) OnState(fn StateFunc) {
	c.onState = fn
}

func (c *Coordinator) emit(state State, iteration int, message string) {
	if c.onState != nil {
		c.onState(state, iteration, message)
	}
}

// Confirm drives generate, search, analyze, decide until a result clears
// the confidence threshold or the iteration ceiling is reached. Every
// target runs at least one iteration. A missing search tool aborts the job
// immediately; all other failures degrade the current iteration and the
// loop moves on. The returned outcome is the single terminal result for
// the job.
func (c *Coordinator) Confirm(ctx context.Context, target resolve.Target) (*Outcome, error) {
	c.emit(StateSeeding, 0, target.Display())
	c.logger.Info("confirming target", "target", target.Display(), "threshold", c.threshold, "max_iterations", c.maxIterations)

	var attempts []Attempt
	var prior []Failure
	bestIdx := -1

	for iteration := 1; iteration <= c.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.emit(StateQuerying, iteration, target.Anchor)
		queries, err := c.generator.Queries(ctx, target, prior)
		if err != nil {
			// Soft failure: the iteration proceeds with no queries and
			// therefore no results, but it still counts against the ceiling.
			c.logger.Warn("query generation failed", "iteration", iteration, "error", err)
		}

		attempt := Attempt{Iteration: iteration, Queries: queries}

		c.emit(StateSearching, iteration, fmt.Sprintf("%d queries", len(queries)))
		results, err := c.runSearches(ctx, queries, &attempt)
		if err != nil {
			return nil, err
		}

		if len(results) > 0 {
			c.emit(StateAnalyzing, iteration, fmt.Sprintf("%d results", len(results)))
			analysis, err := c.analyzer.Analyze(ctx, target, results, prior)
			if err != nil {
				c.logger.Warn("analysis failed", "iteration", iteration, "error", err)
			} else {
				attempt.Analysis = analysis
				attempt.Analyzed = true
			}
		}

		attempts = append(attempts, attempt)
		c.emit(StateDeciding, iteration, fmt.Sprintf("confidence %.2f", attempt.Analysis.Confidence))

		if attempt.Analyzed && attempt.Analysis.Chosen != nil && attempt.Analysis.Confidence >= c.threshold {
			chosen := attempt.Analysis.Chosen
			c.emit(StateResolved, iteration, chosen.URL)
			c.logger.Info("target resolved", "target", target.Display(), "url", chosen.URL, "confidence", attempt.Analysis.Confidence, "iteration", iteration)
			return &Outcome{
				Resolved:   true,
				URL:        chosen.URL,
				Confidence: attempt.Analysis.Confidence,
				Attempts:   attempts,
			}, nil
		}

		// Strictly greater keeps the earliest attempt on ties.
		if attempt.Analyzed && (bestIdx < 0 || attempt.Analysis.Confidence > attempts[bestIdx].Analysis.Confidence) {
			bestIdx = len(attempts) - 1
		}

		prior = append(prior, rejections(attempt)...)
	}

	outcome := &Outcome{Attempts: attempts}
	if bestIdx >= 0 {
		outcome.Best = &attempts[bestIdx]
		outcome.Confidence = attempts[bestIdx].Analysis.Confidence
	}

	c.emit(StateExhausted, c.maxIterations, target.Display())
	c.logger.Info("target exhausted", "target", target.Display(), "iterations", len(attempts), "best_confidence", outcome.Confidence)
	return outcome, nil
}

// runSearches executes the iteration's queries sequentially, deduplicating
// results by URL across queries. A tool error empties that one query's
// results; a missing tool aborts the whole job before any further model
// calls.
func (c *Coordinator) runSearches(ctx context.Context, queries []string, attempt *Attempt) ([]search.Result, error) {
	seen := make(map[string]bool)
	for _, query := range queries {
		results, err := c.searcher.Search(ctx, query, c.resultsPerQuery)
		if err != nil {
			if errors.Is(err, shared.ErrToolUnavailable) {
				return nil, err
			}
			c.logger.Warn("search failed", "query", query, "error", err)
			continue
		}

		for _, r := range results {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			attempt.Results = append(attempt.Results, r)
		}
	}
	return attempt.Results, nil
}

// rejections converts a finished attempt into failure records for the next
// iteration's refinement prompt.
func rejections(attempt Attempt) []Failure {
	reason := "returned no results"
	if attempt.Analyzed && attempt.Analysis.Rationale != "" {
		reason = attempt.Analysis.Rationale
	}

	failures := make([]Failure, 0, len(attempt.Queries))
	for _, query := range attempt.Queries {
		failures = append(failures, Failure{Query: query, Reasoning: reason})
	}
	return failures
}
