package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cliptune/internal/agent"
	"github.com/desertthunder/cliptune/internal/classify"
	"github.com/desertthunder/cliptune/internal/download"
	"github.com/desertthunder/cliptune/internal/resolve"
	"github.com/desertthunder/cliptune/internal/shared"
	"github.com/urfave/cli/v3"
)

// resolveResult is the JSON shape emitted by the resolve command, one per
// target.
type resolveResult struct {
	Target  resolve.Target `json:"target"`
	Outcome *agent.Outcome `json:"outcome"`
	File    string         `json:"file,omitempty"`
}

// Resolve classifies a single argument, resolves it to targets, and runs
// each through the confirmation loop without involving the queue. With
// --download, confirmed results are fetched and tagged as well.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	text := cmd.StringArg("text")
	if text == "" {
		return fmt.Errorf("%w: text to resolve", shared.ErrMissingArgument)
	}
	config := r.reloadConfig(cmd)

	ref := classify.Classify(text)
	if ref.Kind == classify.KindUnknown {
		return fmt.Errorf("%w: %q does not look like a song, list, or platform link", shared.ErrInvalidInput, text)
	}
	r.logger.Info("classified input", "kind", ref.Kind.String())

	pipe, err := r.buildPipeline(ctx, config)
	if err != nil {
		return err
	}
	if err := pipe.search.Available(ctx); err != nil {
		return err
	}

	var targets []resolve.Target
	for _, entry := range expandList(ref) {
		resolved, err := pipe.resolver.Resolve(ctx, entry)
		if err != nil {
			return err
		}
		targets = append(targets, resolved...)
	}

	asJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	fetch := cmd.Bool("download")

	if !asJSON {
		pipe.coordinator.OnState(func(state agent.State, iteration int, message string) {
			r.writePlain("  [%d] %s: %s\n", iteration, state, message)
		})
	}

	results := make([]resolveResult, 0, len(targets))
	for _, target := range targets {
		if !asJSON {
			r.writePlain("Resolving %s\n", target.Display())
		}

		outcome, err := pipe.coordinator.Confirm(ctx, target)
		if err != nil {
			return err
		}

		result := resolveResult{Target: target, Outcome: outcome}
		if outcome.Resolved && fetch {
			file, err := pipe.downloader.Download(ctx, outcome.URL, download.Tags{
				Artist:    target.Artist,
				Title:     target.Title,
				Album:     target.Album,
				Year:      target.Year,
				SourceURL: outcome.URL,
			})
			if err != nil {
				return err
			}
			result.File = file
		}
		results = append(results, result)

		if !asJSON {
			r.printOutcome(result)
		}
	}

	if asJSON {
		if len(results) == 1 {
			return r.writeJSON(results[0], pretty)
		}
		return r.writeJSON(results, pretty)
	}
	return nil
}

// expandList splits a list reference into per-line references so each
// song or link resolves on its own; other kinds pass through unchanged.
func expandList(ref classify.Reference) []classify.Reference {
	if ref.Kind != classify.KindList {
		return []classify.Reference{ref}
	}
	refs := make([]classify.Reference, 0, len(ref.Songs))
	for _, raw := range ref.Songs {
		refs = append(refs, classify.Classify(raw))
	}
	return refs
}

func (r *Runner) printOutcome(result resolveResult) {
	outcome := result.Outcome
	if !outcome.Resolved {
		r.writePlain("✗ No confident match for %s (best confidence %.2f over %d iterations)\n",
			result.Target.Display(), outcome.Confidence, len(outcome.Attempts))
		if best := outcome.Best; best != nil && best.Analysis.Chosen != nil {
			r.writePlain("  Closest: %s (%s)\n", best.Analysis.Chosen.Title, best.Analysis.Chosen.URL)
		}
		return
	}

	r.writePlain("✓ %s\n", result.Target.Display())
	r.writePlain("  URL: %s (confidence %.2f)\n", outcome.URL, outcome.Confidence)
	if result.File != "" {
		r.writePlain("  Saved: %s\n", result.File)
	}
}
