package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/cliptune/internal/classify"
	"github.com/desertthunder/cliptune/internal/shared"
)

func TestStatusTerminal(t *testing.T) {
	tc := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusInProgress, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusSkipped, true},
		{StatusExhausted, true},
	}

	for _, c := range tc {
		if got := c.status.Terminal(); got != c.want {
			t.Errorf("%s: expected %v, got %v", c.status, c.want, got)
		}
	}
}

func TestItemDisplay(t *testing.T) {
	item := &Item{Content: "some raw capture"}
	if got := item.Display(); got != "some raw capture" {
		t.Errorf("expected content fallback, got %q", got)
	}

	item.Artist = "Daft Punk"
	item.Title = "One More Time"
	if got := item.Display(); got != "Daft Punk - One More Time" {
		t.Errorf("expected artist - title, got %q", got)
	}
}

func TestItemReference(t *testing.T) {
	t.Run("song bypasses the noise filter", func(t *testing.T) {
		// "system" trips the classifier's noise markers; the stored kind
		// from capture time wins.
		item := &Item{Content: "System of a Down - Chop Suey!", Kind: classify.KindSong}
		ref, err := item.Reference()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ref.Kind != classify.KindSong {
			t.Errorf("expected song kind, got %s", ref.Kind)
		}
		if ref.Song != "System of a Down - Chop Suey!" {
			t.Errorf("unexpected song: %q", ref.Song)
		}
	})

	t.Run("url reparses platform and id", func(t *testing.T) {
		item := &Item{Content: "https://youtube.com/watch?v=dQw4w9WgXcQ", Kind: classify.KindURL}
		ref, err := item.Reference()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ref.Kind != classify.KindURL {
			t.Fatalf("expected url kind, got %s", ref.Kind)
		}
		if ref.URL.Platform != classify.PlatformYouTube || ref.URL.ID != "dQw4w9WgXcQ" {
			t.Errorf("unexpected url: %+v", ref.URL)
		}
	})

	t.Run("corrupted url content", func(t *testing.T) {
		item := &Item{Content: "not a url anymore", Kind: classify.KindURL}
		if _, err := item.Reference(); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unworkable kinds rejected", func(t *testing.T) {
		for _, kind := range []classify.Kind{classify.KindUnknown, classify.KindList} {
			item := &Item{Content: "whatever", Kind: kind}
			if _, err := item.Reference(); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("%s: expected ErrInvalidInput, got %v", kind, err)
			}
		}
	})
}

func TestSongItems(t *testing.T) {
	batch := BatchName(time.Unix(1700000000, 0))
	if batch != "Clipboard Batch 1700000000" {
		t.Errorf("unexpected batch name: %q", batch)
	}

	songs := []string{"Daft Punk - One More Time", "Air - La Femme d'Argent", "Justice - D.A.N.C.E."}
	items := SongItems(songs, batch)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	for i, item := range items {
		if item.Content != songs[i] {
			t.Errorf("item %d: expected %q, got %q", i, songs[i], item.Content)
		}
		if item.Kind != classify.KindSong {
			t.Errorf("item %d: expected song kind, got %s", i, item.Kind)
		}
		if item.Batch != batch {
			t.Errorf("item %d: unexpected batch %q", i, item.Batch)
		}
		if item.TrackIndex != i+1 || item.TotalTracks != 3 {
			t.Errorf("item %d: unexpected numbering %d/%d", i, item.TrackIndex, item.TotalTracks)
		}
	}
}

func TestURLItem(t *testing.T) {
	ref := classify.Classify("check this out https://youtu.be/dQw4w9WgXcQ so good")
	item := URLItem(ref)

	if item.Kind != classify.KindURL {
		t.Errorf("expected url kind, got %s", item.Kind)
	}
	if item.Content != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("expected the matched link, got %q", item.Content)
	}
}
