// package watch polls the system clipboard and feeds classified captures
// into the download queue.
package watch

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/cliptune/internal/classify"
	"github.com/desertthunder/cliptune/internal/queue"
	"github.com/desertthunder/cliptune/internal/shared"
)

// readFunc returns the current clipboard text. Swapped out in tests.
type readFunc func() (string, error)

// Enqueuer persists captured references as pending queue items.
type Enqueuer interface {
	Enqueue(item *queue.Item) error
	EnqueueBatch(items []*queue.Item) error
}

// Waker nudges the queue worker after new items land.
type Waker interface {
	Wake()
}

// Watcher samples the clipboard at a fixed interval and enqueues whatever
// classifies as a music reference. It only classifies and writes to the
// local queue; resolution, model calls, and downloads all happen on the
// worker, so a stalled download never delays the next capture.
type Watcher struct {
	store    Enqueuer
	waker    Waker
	interval time.Duration
	logger   *log.Logger
	read     readFunc
	last     string
}

// NewWatcher creates a clipboard watcher from config.
func NewWatcher(cfg shared.WatchConfig, store Enqueuer, logger *log.Logger) *Watcher {
	return &Watcher{
		store:    store,
		interval: cfg.PollInterval(),
		logger:   logger,
		read:     clipboard.ReadAll,
	}
}

// SetWaker registers a worker to nudge after each enqueue.
func (w *Watcher) SetWaker(waker Waker) {
	w.waker = waker
}

// Run polls the clipboard until ctx is canceled. Content already on the
// clipboard at startup counts as a fresh capture, so a link copied just
// before launch is picked up on the first tick.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching clipboard", "interval", w.interval)

	w.poll()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.poll()
		}
	}
}

// poll reads one clipboard snapshot and ingests it when it changed. The
// snapshot is remembered even when it classifies as noise so junk content
// is inspected once, not every tick.
func (w *Watcher) poll() {
	content, err := w.read()
	if err != nil {
		w.logger.Debug("clipboard read failed", "error", err)
		return
	}
	if content == w.last || strings.TrimSpace(content) == "" {
		return
	}
	w.last = content

	w.ingest(classify.Classify(content))
}

func (w *Watcher) ingest(ref classify.Reference) {
	switch ref.Kind {
	case classify.KindSong:
		item := &queue.Item{Content: ref.Song, Kind: classify.KindSong}
		if err := w.store.Enqueue(item); err != nil {
			w.logger.Error("failed to enqueue song", "error", err)
			return
		}
		w.logger.Info("captured song", "content", item.Content)
	case classify.KindURL:
		item := queue.URLItem(ref)
		if err := w.store.Enqueue(item); err != nil {
			w.logger.Error("failed to enqueue link", "error", err)
			return
		}
		w.logger.Info("captured link", "content", item.Content)
	case classify.KindList:
		items := listItems(ref, time.Now())
		if err := w.store.EnqueueBatch(items); err != nil {
			w.logger.Error("failed to enqueue list", "error", err)
			return
		}
		w.logger.Info("captured list", "tracks", len(items))
	default:
		return
	}

	if w.waker != nil {
		w.waker.Wake()
	}
}

// listItems splits a captured list into independent queue items. Lists are
// homogeneous by construction: either every entry is a matched platform
// link or none is, so the first entry decides which shape applies. Song
// lines are batched with track numbering; link lists get the same batch
// labels so progress reads "[2/5]" either way.
func listItems(ref classify.Reference, now time.Time) []*queue.Item {
	batch := queue.BatchName(now)
	if entry := classify.Classify(ref.Songs[0]); entry.URL == nil {
		return queue.SongItems(ref.Songs, batch)
	}

	items := make([]*queue.Item, 0, len(ref.Songs))
	for i, raw := range ref.Songs {
		item := queue.URLItem(classify.Classify(raw))
		item.Batch = batch
		item.TrackIndex = i + 1
		item.TotalTracks = len(ref.Songs)
		items = append(items, item)
	}
	return items
}
