package queue

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/cliptune/internal/classify"
	"github.com/desertthunder/cliptune/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := shared.NewDatabase(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestEnqueueDefaults(t *testing.T) {
	store := newTestStore(t)

	item := &Item{Content: "Daft Punk - One More Time", Kind: classify.KindSong}
	if err := store.Enqueue(item); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if item.ID == "" {
		t.Error("expected generated ID")
	}
	if item.Status != StatusPending {
		t.Errorf("expected pending status, got %s", item.Status)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	t.Run("rejects empty content", func(t *testing.T) {
		err := store.Enqueue(&Item{Kind: classify.KindSong})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestClaimOrder(t *testing.T) {
	store := newTestStore(t)

	items := SongItems([]string{"a - b", "c - d", "e - f"}, "Batch")
	if err := store.EnqueueBatch(items); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	// Batch members share a created_at, so this also exercises the rowid
	// tiebreak.
	for i, want := range []string{"a - b", "c - d", "e - f"} {
		item, err := store.ClaimNext()
		if err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
		if item == nil {
			t.Fatalf("claim %d returned nil", i)
		}
		if item.Content != want {
			t.Errorf("claim %d: expected %q, got %q", i, want, item.Content)
		}
		if item.Status != StatusInProgress {
			t.Errorf("claim %d: expected in_progress, got %s", i, item.Status)
		}
	}

	item, err := store.ClaimNext()
	if err != nil {
		t.Fatalf("empty claim failed: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil from empty queue, got %+v", item)
	}
}

func TestGetAndUpdate(t *testing.T) {
	store := newTestStore(t)

	item := &Item{Content: "Daft Punk - One More Time", Kind: classify.KindSong}
	if err := store.Enqueue(item); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	item.Status = StatusCompleted
	item.Artist = "Daft Punk"
	item.Title = "One More Time"
	item.Album = "Discovery"
	item.Year = "2001"
	item.Anchor = "Daft Punk - One More Time"
	item.URL = "https://youtube.com/watch?v=FGBhQbmPwH8"
	item.Confidence = 0.93
	item.File = "/music/Daft Punk - One More Time.mp3"
	if err := store.Update(item); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.Get(item.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.Kind != classify.KindSong {
		t.Errorf("expected song kind, got %s", got.Kind)
	}
	if got.Artist != "Daft Punk" || got.Title != "One More Time" {
		t.Errorf("unexpected metadata: %s - %s", got.Artist, got.Title)
	}
	if got.Album != "Discovery" || got.Year != "2001" {
		t.Errorf("unexpected album metadata: %s (%s)", got.Album, got.Year)
	}
	if got.URL != item.URL {
		t.Errorf("unexpected url: %s", got.URL)
	}
	if got.Confidence != 0.93 {
		t.Errorf("unexpected confidence: %f", got.Confidence)
	}
	if got.File != item.File {
		t.Errorf("unexpected file: %s", got.File)
	}

	t.Run("missing item", func(t *testing.T) {
		if _, err := store.Get("nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound from Get, got %v", err)
		}
		if err := store.Update(&Item{ID: "nope"}); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound from Update, got %v", err)
		}
	})
}

func TestListAndCounts(t *testing.T) {
	store := newTestStore(t)

	items := SongItems([]string{"a - b", "c - d", "e - f"}, "Batch")
	if err := store.EnqueueBatch(items); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	items[0].Status = StatusCompleted
	items[1].Status = StatusFailed
	for _, item := range items[:2] {
		if err := store.Update(item); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	all, err := store.List("", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 items, got %d", len(all))
	}
	if all[0].Content != "e - f" {
		t.Errorf("expected newest first, got %q", all[0].Content)
	}

	pending, err := store.List(StatusPending, 0)
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Content != "e - f" {
		t.Errorf("unexpected pending items: %+v", pending)
	}

	limited, err := store.List("", 2)
	if err != nil {
		t.Fatalf("limited list failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 items, got %d", len(limited))
	}

	counts, err := store.Counts()
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if counts[StatusCompleted] != 1 || counts[StatusFailed] != 1 || counts[StatusPending] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestRetryItems(t *testing.T) {
	store := newTestStore(t)

	items := SongItems([]string{"a - b", "c - d", "e - f", "g - h"}, "Batch")
	if err := store.EnqueueBatch(items); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	items[0].Status = StatusFailed
	items[0].Error = "network down"
	items[1].Status = StatusExhausted
	items[2].Status = StatusSkipped
	for _, item := range items[:3] {
		if err := store.Update(item); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	t.Run("single", func(t *testing.T) {
		if err := store.Retry(items[0].ID); err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		got, err := store.Get(items[0].ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Status != StatusPending {
			t.Errorf("expected pending, got %s", got.Status)
		}
		if got.Error != "" {
			t.Errorf("expected cleared error, got %q", got.Error)
		}
	})

	t.Run("pending rejected", func(t *testing.T) {
		err := store.Retry(items[3].ID)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if err := store.Retry("nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("all moves failed and exhausted only", func(t *testing.T) {
		n, err := store.RetryAll()
		if err != nil {
			t.Fatalf("retry all failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 requeued item, got %d", n)
		}

		exhausted, err := store.Get(items[1].ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if exhausted.Status != StatusPending {
			t.Errorf("expected exhausted item requeued, got %s", exhausted.Status)
		}

		skipped, err := store.Get(items[2].ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if skipped.Status != StatusSkipped {
			t.Errorf("expected skipped item untouched, got %s", skipped.Status)
		}
	})
}

func TestResetInProgress(t *testing.T) {
	store := newTestStore(t)

	items := SongItems([]string{"a - b", "c - d"}, "Batch")
	if err := store.EnqueueBatch(items); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := store.ClaimNext(); err != nil {
			t.Fatalf("claim failed: %v", err)
		}
	}

	n, err := store.ResetInProgress()
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 reset items, got %d", n)
	}

	counts, err := store.Counts()
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if counts[StatusPending] != 2 {
		t.Errorf("expected 2 pending after reset, got %v", counts)
	}
}

func TestPruneHistory(t *testing.T) {
	store := newTestStore(t)

	items := SongItems([]string{"a - 1", "a - 2", "a - 3", "a - 4", "a - 5", "a - 6"}, "Batch")
	if err := store.EnqueueBatch(items); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	// Finish the first five in order, leaving the last pending. The sleeps
	// keep updated_at strictly increasing.
	for _, item := range items[:5] {
		item.Status = StatusCompleted
		if err := store.Update(item); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	pruned, err := store.PruneHistory(3)
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if pruned != 2 {
		t.Errorf("expected 2 pruned items, got %d", pruned)
	}

	for _, item := range items[:2] {
		if _, err := store.Get(item.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected oldest item %s pruned, got %v", item.Content, err)
		}
	}
	for _, item := range items[2:] {
		if _, err := store.Get(item.ID); err != nil {
			t.Errorf("expected item %s kept: %v", item.Content, err)
		}
	}

	t.Run("zero keeps everything", func(t *testing.T) {
		n, err := store.PruneHistory(0)
		if err != nil {
			t.Fatalf("prune failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected no pruning with zero limit, got %d", n)
		}
	})
}

func TestClearItems(t *testing.T) {
	store := newTestStore(t)

	items := SongItems([]string{"a - b", "c - d", "e - f", "g - h"}, "Batch")
	if err := store.EnqueueBatch(items); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	items[0].Status = StatusCompleted
	items[1].Status = StatusFailed
	items[2].Status = StatusSkipped
	for _, item := range items[:3] {
		if err := store.Update(item); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	n, err := store.Clear(StatusFailed)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 cleared item, got %d", n)
	}

	n, err = store.Clear("")
	if err != nil {
		t.Fatalf("terminal clear failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 cleared items, got %d", n)
	}

	remaining, err := store.List("", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Status != StatusPending {
		t.Errorf("expected only the pending item to survive, got %+v", remaining)
	}
}
