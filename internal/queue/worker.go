package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/cliptune/internal/agent"
	"github.com/desertthunder/cliptune/internal/classify"
	"github.com/desertthunder/cliptune/internal/download"
	"github.com/desertthunder/cliptune/internal/resolve"
	"github.com/desertthunder/cliptune/internal/shared"
)

// idleDelay is how long the worker sleeps between claim attempts when the
// queue is empty and nothing wakes it.
const idleDelay = time.Second

// Resolver expands a reference into canonical targets.
type Resolver interface {
	Resolve(ctx context.Context, ref classify.Reference) ([]resolve.Target, error)
}

// Confirmer runs the iterative search loop for one target.
type Confirmer interface {
	Confirm(ctx context.Context, target resolve.Target) (*agent.Outcome, error)
}

// Downloader fetches confirmed songs and answers library lookups.
type Downloader interface {
	Exists(artist, title string) (string, bool)
	Download(ctx context.Context, url string, tags download.Tags) (string, error)
}

// Notifier pushes terminal outcomes to an external channel.
type Notifier interface {
	Publish(ctx context.Context, title, message string, tags ...string) error
}

// WorkerConfig bundles the worker's tuning knobs.
type WorkerConfig struct {
	Spacing      time.Duration // minimum gap between download starts
	HistoryLimit int           // finished items kept after pruning, 0 keeps all
}

// Worker drains the queue one item at a time: resolve, confirm, then hand
// off to a download stage that enforces spacing between yt-dlp runs. The
// download stage overlaps with confirmation of the next item, so the
// spacing gap is not dead time.
type Worker struct {
	store      *Store
	resolver   Resolver
	confirmer  Confirmer
	downloader Downloader
	notifier   Notifier
	limiter    *rate.Limiter
	retry      shared.RetryConfig
	history    int
	logger     *log.Logger
	wake       chan struct{}
}

// downloadJob carries a confirmed item into the download stage.
type downloadJob struct {
	item   *Item
	target resolve.Target
}

// NewWorker creates a worker. Spacing below one second is raised to one
// second; the gap is there to stay off YouTube's throttling radar, not to
// be tuned away.
func NewWorker(store *Store, resolver Resolver, confirmer Confirmer, downloader Downloader, cfg WorkerConfig, logger *log.Logger) *Worker {
	spacing := cfg.Spacing
	if spacing < time.Second {
		spacing = time.Second
	}

	return &Worker{
		store:      store,
		resolver:   resolver,
		confirmer:  confirmer,
		downloader: downloader,
		limiter:    rate.NewLimiter(rate.Every(spacing), 1),
		retry:      shared.DownloadRetry(),
		history:    cfg.HistoryLimit,
		logger:     logger,
		wake:       make(chan struct{}, 1),
	}
}

// SetNotifier attaches an outcome notifier. nil disables notifications.
func (w *Worker) SetNotifier(n Notifier) {
	w.notifier = n
}

// Wake nudges the worker to claim immediately instead of waiting out the
// idle delay. Safe from any goroutine; never blocks.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run processes items until ctx is canceled. Interrupted items are left
// in_progress and requeued by the reset on the next start. Progress updates
// are best-effort; a nil or full channel drops them.
func (w *Worker) Run(ctx context.Context, progress chan<- ProgressUpdate) error {
	reset, err := w.store.ResetInProgress()
	if err != nil {
		return fmt.Errorf("failed to reset interrupted items: %w", err)
	}
	if reset > 0 {
		w.logger.Info("requeued interrupted items", "count", reset)
	}

	downloads := make(chan downloadJob, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.downloadLoop(ctx, downloads, progress)
	}()

	err = w.claimLoop(ctx, downloads, progress)
	close(downloads)
	wg.Wait()
	return err
}

func (w *Worker) claimLoop(ctx context.Context, downloads chan<- downloadJob, progress chan<- ProgressUpdate) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, err := w.store.ClaimNext()
		if err != nil {
			return err
		}
		if item == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.wake:
			case <-time.After(idleDelay):
			}
			continue
		}

		w.process(ctx, item, downloads, progress)
	}
}

// process runs one item through resolution and confirmation. Confirmed
// items go to the download stage; containers fan out into child items
// instead.
func (w *Worker) process(ctx context.Context, item *Item, downloads chan<- downloadJob, progress chan<- ProgressUpdate) {
	logger := w.logger.With("item", item.ID)
	logger.Info("processing queue item", "content", item.Content, "kind", item.Kind.String())
	w.send(progress, claimedUpdate(item))

	targets, err := w.targetsFor(ctx, item, progress)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.fail(ctx, item, progress, err)
		return
	}

	if len(targets) > 1 {
		w.expand(ctx, item, targets, progress)
		return
	}

	target := targets[0]
	item.Artist = target.Artist
	item.Title = target.Title
	item.Album = target.Album
	item.Year = target.Year
	item.Anchor = target.Anchor
	if err := w.store.Update(item); err != nil {
		logger.Warn("failed to persist resolved metadata", "error", err)
	}

	if file, ok := w.downloader.Exists(item.Artist, item.Title); ok {
		logger.Info("song already in library", "file", file)
		item.Status = StatusSkipped
		item.File = file
		item.Error = ""
		w.finish(ctx, item, progress, skippedUpdate(item))
		return
	}

	w.send(progress, confirmingUpdate(item))
	outcome, err := w.confirmer.Confirm(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.fail(ctx, item, progress, err)
		return
	}

	if !outcome.Resolved {
		logger.Info("confirmation exhausted", "confidence", outcome.Confidence, "iterations", len(outcome.Attempts))
		item.Status = StatusExhausted
		item.Confidence = outcome.Confidence
		if best := outcome.Best; best != nil && best.Analysis.Chosen != nil {
			item.URL = best.Analysis.Chosen.URL
		}
		w.finish(ctx, item, progress, exhaustedUpdate(item))
		return
	}

	logger.Info("confirmed", "url", outcome.URL, "confidence", outcome.Confidence)
	item.URL = outcome.URL
	item.Confidence = outcome.Confidence
	if err := w.store.Update(item); err != nil {
		logger.Warn("failed to persist confirmed url", "error", err)
	}

	select {
	case downloads <- downloadJob{item: item, target: target}:
	case <-ctx.Done():
	}
}

// targetsFor returns the canonical targets for an item. Items expanded out
// of a container already carry their metadata and skip resolution.
func (w *Worker) targetsFor(ctx context.Context, item *Item, progress chan<- ProgressUpdate) ([]resolve.Target, error) {
	if item.Artist != "" && item.Title != "" {
		anchor := item.Anchor
		if anchor == "" {
			anchor = fmt.Sprintf("%s - %s", item.Artist, item.Title)
		}
		return []resolve.Target{{
			Artist: item.Artist,
			Title:  item.Title,
			Album:  item.Album,
			Year:   item.Year,
			Anchor: anchor,
		}}, nil
	}

	ref, err := item.Reference()
	if err != nil {
		return nil, err
	}

	w.send(progress, resolvingUpdate(item))
	return w.resolver.Resolve(ctx, ref)
}

// expand fans a container item out into one child per track. Children carry
// their resolved metadata so they skip straight to confirmation; the parent
// is marked completed once they land. No notification fires for the parent,
// each child reports its own outcome.
func (w *Worker) expand(ctx context.Context, parent *Item, targets []resolve.Target, progress chan<- ProgressUpdate) {
	batch := targets[0].Album
	if batch == "" {
		batch = parent.Content
	}

	children := make([]*Item, 0, len(targets))
	for i, target := range targets {
		children = append(children, &Item{
			Content:     target.Display(),
			Kind:        classify.KindSong,
			Batch:       batch,
			TrackIndex:  i + 1,
			TotalTracks: len(targets),
			Artist:      target.Artist,
			Title:       target.Title,
			Album:       target.Album,
			Year:        target.Year,
			Anchor:      target.Anchor,
		})
	}

	if err := w.store.EnqueueBatch(children); err != nil {
		w.fail(ctx, parent, progress, fmt.Errorf("failed to enqueue expanded tracks: %w", err))
		return
	}

	w.logger.Info("expanded container", "item", parent.ID, "batch", batch, "tracks", len(children))
	parent.Status = StatusCompleted
	parent.Error = ""
	if err := w.store.Update(parent); err != nil {
		w.logger.Error("failed to persist expanded parent", "item", parent.ID, "error", err)
	}
	w.send(progress, expandedUpdate(parent, len(children)))
}

// downloadLoop serializes downloads and enforces the spacing gap between
// consecutive yt-dlp runs.
func (w *Worker) downloadLoop(ctx context.Context, jobs <-chan downloadJob, progress chan<- ProgressUpdate) {
	for job := range jobs {
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
		w.download(ctx, job, progress)
	}
}

func (w *Worker) download(ctx context.Context, job downloadJob, progress chan<- ProgressUpdate) {
	item, target := job.item, job.target
	w.send(progress, downloadingUpdate(item))

	tags := download.Tags{
		Artist:    target.Artist,
		Title:     target.Title,
		Album:     target.Album,
		Year:      target.Year,
		SourceURL: item.URL,
	}

	var file string
	err := shared.Retry(ctx, w.retry, func() error {
		var derr error
		file, derr = w.downloader.Download(ctx, item.URL, tags)
		if errors.Is(derr, shared.ErrToolUnavailable) {
			return shared.Permanent(derr)
		}
		return derr
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.fail(ctx, item, progress, err)
		return
	}

	w.logger.Info("download complete", "item", item.ID, "file", file)
	item.Status = StatusCompleted
	item.File = file
	item.Error = ""
	w.finish(ctx, item, progress, completedUpdate(item))
}

// finish persists a terminal status, prunes old history, and fans the
// outcome out to progress listeners and the notifier.
func (w *Worker) finish(ctx context.Context, item *Item, progress chan<- ProgressUpdate, update ProgressUpdate) {
	if err := w.store.Update(item); err != nil {
		w.logger.Error("failed to persist item status", "item", item.ID, "status", item.Status, "error", err)
	}
	if _, err := w.store.PruneHistory(w.history); err != nil {
		w.logger.Warn("failed to prune queue history", "error", err)
	}
	w.send(progress, update)
	w.notifyOutcome(ctx, item)
}

func (w *Worker) fail(ctx context.Context, item *Item, progress chan<- ProgressUpdate, err error) {
	w.logger.Error("queue item failed", "item", item.ID, "content", item.Content, "error", err)
	item.Status = StatusFailed
	item.Error = err.Error()
	w.finish(ctx, item, progress, failedUpdate(item, err))
}

// send delivers a progress update without blocking. A nil channel or a full
// buffer drops the update rather than stalling the worker.
func (w *Worker) send(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// notifyOutcome publishes the item's terminal state. Notification failures
// are logged and swallowed; they never affect the queue.
func (w *Worker) notifyOutcome(ctx context.Context, item *Item) {
	if w.notifier == nil {
		return
	}

	var (
		title string
		tags  []string
	)
	message := item.Display()

	switch item.Status {
	case StatusCompleted:
		title = "Download complete"
		tags = []string{"white_check_mark"}
	case StatusSkipped:
		title = "Already in library"
		tags = []string{"fast_forward"}
	case StatusExhausted:
		title = "No confident match"
		tags = []string{"mag"}
	case StatusFailed:
		title = "Download failed"
		tags = []string{"x"}
		message = fmt.Sprintf("%s: %s", item.Display(), item.Error)
	default:
		return
	}

	if err := w.notifier.Publish(ctx, title, message, tags...); err != nil {
		w.logger.Warn("failed to publish notification", "error", err)
	}
}
