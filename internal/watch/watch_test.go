package watch

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/cliptune/internal/classify"
	"github.com/desertthunder/cliptune/internal/queue"
	"github.com/desertthunder/cliptune/internal/shared"
)

// recordingStore captures enqueued items in order.
type recordingStore struct {
	items   []*queue.Item
	batches [][]*queue.Item
	fail    bool
}

func (s *recordingStore) Enqueue(item *queue.Item) error {
	if s.fail {
		return errors.New("enqueue failed")
	}
	s.items = append(s.items, item)
	return nil
}

func (s *recordingStore) EnqueueBatch(items []*queue.Item) error {
	if s.fail {
		return errors.New("enqueue failed")
	}
	s.batches = append(s.batches, items)
	return nil
}

type countingWaker struct {
	nudges int
}

func (w *countingWaker) Wake() { w.nudges++ }

func newTestWatcher(store *recordingStore) (*Watcher, *countingWaker) {
	logger := shared.NewLogger(io.Discard)
	w := NewWatcher(shared.WatchConfig{PollIntervalMS: 10}, store, logger)
	waker := &countingWaker{}
	w.SetWaker(waker)
	return w, waker
}

func TestWatcherPoll(t *testing.T) {
	t.Run("captures a song name", func(t *testing.T) {
		store := &recordingStore{}
		w, waker := newTestWatcher(store)
		w.read = func() (string, error) { return "Rick Astley - Never Gonna Give You Up", nil }

		w.poll()

		if len(store.items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(store.items))
		}
		item := store.items[0]
		if item.Kind != classify.KindSong {
			t.Errorf("expected song kind, got %s", item.Kind)
		}
		if item.Content != "Rick Astley - Never Gonna Give You Up" {
			t.Errorf("unexpected content: %q", item.Content)
		}
		if waker.nudges != 1 {
			t.Errorf("expected 1 wake, got %d", waker.nudges)
		}
	})

	t.Run("captures a platform link", func(t *testing.T) {
		store := &recordingStore{}
		w, _ := newTestWatcher(store)
		w.read = func() (string, error) {
			return "check this out https://www.youtube.com/watch?v=dQw4w9WgXcQ thanks", nil
		}

		w.poll()

		if len(store.items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(store.items))
		}
		item := store.items[0]
		if item.Kind != classify.KindURL {
			t.Errorf("expected url kind, got %s", item.Kind)
		}
		// The matched link is stored, not the surrounding prose.
		if item.Content != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
			t.Errorf("unexpected content: %q", item.Content)
		}
	})

	t.Run("captures a song list as a batch", func(t *testing.T) {
		store := &recordingStore{}
		w, waker := newTestWatcher(store)
		w.read = func() (string, error) {
			return "Daft Punk - One More Time\nJustice - D.A.N.C.E.\nModerat - A New Error remix", nil
		}

		w.poll()

		if len(store.batches) != 1 {
			t.Fatalf("expected 1 batch, got %d", len(store.batches))
		}
		batch := store.batches[0]
		if len(batch) != 3 {
			t.Fatalf("expected 3 items, got %d", len(batch))
		}
		if batch[0].Content != "Daft Punk - One More Time" || batch[2].Content != "Moderat - A New Error remix" {
			t.Errorf("batch order not preserved: %q, %q", batch[0].Content, batch[2].Content)
		}
		for i, item := range batch {
			if item.TrackIndex != i+1 || item.TotalTracks != 3 {
				t.Errorf("item %d has position %d/%d", i, item.TrackIndex, item.TotalTracks)
			}
		}
		if waker.nudges != 1 {
			t.Errorf("expected 1 wake, got %d", waker.nudges)
		}
	})

	t.Run("ignores repeat snapshots", func(t *testing.T) {
		store := &recordingStore{}
		w, _ := newTestWatcher(store)
		w.read = func() (string, error) { return "Rick Astley - Never Gonna Give You Up", nil }

		w.poll()
		w.poll()

		if len(store.items) != 1 {
			t.Errorf("expected repeat snapshot to be skipped, got %d items", len(store.items))
		}
	})

	t.Run("remembers noise so it is inspected once", func(t *testing.T) {
		store := &recordingStore{}
		w, waker := newTestWatcher(store)
		w.read = func() (string, error) { return "panic: runtime error: index out of range", nil }

		w.poll()
		w.poll()

		if len(store.items) != 0 || len(store.batches) != 0 {
			t.Errorf("expected noise to be dropped, got %d items", len(store.items))
		}
		if waker.nudges != 0 {
			t.Errorf("expected no wake for noise, got %d", waker.nudges)
		}
	})

	t.Run("ignores blank content", func(t *testing.T) {
		store := &recordingStore{}
		w, _ := newTestWatcher(store)
		w.read = func() (string, error) { return "   \n  ", nil }

		w.poll()

		if len(store.items) != 0 {
			t.Errorf("expected blank content to be skipped")
		}
	})

	t.Run("tolerates clipboard read failures", func(t *testing.T) {
		store := &recordingStore{}
		w, _ := newTestWatcher(store)
		w.read = func() (string, error) { return "", errors.New("no clipboard") }

		w.poll()

		if len(store.items) != 0 {
			t.Errorf("expected nothing enqueued on read failure")
		}
	})

	t.Run("does not wake the worker when enqueue fails", func(t *testing.T) {
		store := &recordingStore{fail: true}
		w, waker := newTestWatcher(store)
		w.read = func() (string, error) { return "Rick Astley - Never Gonna Give You Up", nil }

		w.poll()

		if waker.nudges != 0 {
			t.Errorf("expected no wake on enqueue failure, got %d", waker.nudges)
		}
	})
}

func TestListItems(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	t.Run("song lines become song items", func(t *testing.T) {
		ref := classify.Classify("Daft Punk - One More Time\nJustice - D.A.N.C.E.")
		if ref.Kind != classify.KindList {
			t.Fatalf("expected list, got %s", ref.Kind)
		}

		items := listItems(ref, now)
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		for _, item := range items {
			if item.Kind != classify.KindSong {
				t.Errorf("expected song kind, got %s", item.Kind)
			}
			if item.Batch != queue.BatchName(now) {
				t.Errorf("unexpected batch label: %q", item.Batch)
			}
		}
	})

	t.Run("link lines become url items", func(t *testing.T) {
		ref := classify.Classify("https://www.youtube.com/watch?v=dQw4w9WgXcQ\nhttps://youtu.be/L_jWHffIx5E")
		if ref.Kind != classify.KindList {
			t.Fatalf("expected list, got %s", ref.Kind)
		}

		items := listItems(ref, now)
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		for i, item := range items {
			if item.Kind != classify.KindURL {
				t.Errorf("expected url kind, got %s", item.Kind)
			}
			if item.TrackIndex != i+1 || item.TotalTracks != 2 {
				t.Errorf("item %d has position %d/%d", i, item.TrackIndex, item.TotalTracks)
			}
		}
	})
}
