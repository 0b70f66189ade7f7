// package queue persists captured references as download jobs and works them
// through resolution, confirmation, and download.
//
// Jobs live in SQLite so they survive restarts. A single Worker drains the
// queue, keeping downloads sequential and spaced apart.
package queue

import (
	"fmt"
	"time"

	"github.com/desertthunder/cliptune/internal/classify"
	"github.com/desertthunder/cliptune/internal/shared"
)

// Item lifecycle states. pending items wait for the worker and in_progress
// items are being worked; anything in_progress at startup is reset to
// pending. The rest are end states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
	StatusExhausted  Status = "exhausted"
)

// Terminal reports whether the status is an end state: completed (file on
// disk), skipped (already in the library), exhausted (no result cleared the
// confidence threshold), or failed.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped, StatusExhausted:
		return true
	}
	return false
}

// Item is a single download job. Content holds the captured text and Kind
// how it was classified at capture time; the worker trusts Kind rather than
// re-filtering, so track names that happen to resemble clipboard noise
// survive the trip through the database. Artist through Anchor are filled
// in as resolution progresses, URL and Confidence once confirmation picks a
// result.
type Item struct {
	ID          string        `json:"id"`
	Content     string        `json:"content"`
	Kind        classify.Kind `json:"kind"`
	Status      Status        `json:"status"`
	Batch       string        `json:"batch,omitempty"`
	TrackIndex  int           `json:"track_index,omitempty"`
	TotalTracks int           `json:"total_tracks,omitempty"`
	Artist      string        `json:"artist,omitempty"`
	Title       string        `json:"title,omitempty"`
	Album       string        `json:"album,omitempty"`
	Year        string        `json:"year,omitempty"`
	Anchor      string        `json:"anchor,omitempty"`
	URL         string        `json:"url,omitempty"`
	Confidence  float64       `json:"confidence,omitempty"`
	File        string        `json:"file,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Display returns a short label for tables, logs, and notifications.
func (i *Item) Display() string {
	if i.Artist != "" && i.Title != "" {
		return fmt.Sprintf("%s - %s", i.Artist, i.Title)
	}
	return i.Content
}

// Reference rebuilds the classified reference for the worker. URL items are
// re-parsed to recover platform and resource; song items pass through
// untouched.
func (i *Item) Reference() (classify.Reference, error) {
	switch i.Kind {
	case classify.KindSong:
		return classify.Reference{Kind: classify.KindSong, Song: i.Content, Raw: i.Content}, nil
	case classify.KindURL:
		ref := classify.Classify(i.Content)
		if ref.Kind != classify.KindURL {
			return classify.Reference{}, fmt.Errorf("%w: %q does not parse as a platform URL", shared.ErrInvalidInput, i.Content)
		}
		return ref, nil
	default:
		return classify.Reference{}, fmt.Errorf("%w: cannot work a %s item", shared.ErrInvalidInput, i.Kind)
	}
}

// BatchName labels a multi-line clipboard capture taken at t.
func BatchName(t time.Time) string {
	return fmt.Sprintf("Clipboard Batch %d", t.Unix())
}

// SongItems builds one pending song item per entry of a captured list,
// numbered within the named batch.
func SongItems(songs []string, batch string) []*Item {
	items := make([]*Item, 0, len(songs))
	for i, song := range songs {
		items = append(items, &Item{
			Content:     song,
			Kind:        classify.KindSong,
			Batch:       batch,
			TrackIndex:  i + 1,
			TotalTracks: len(songs),
		})
	}
	return items
}

// URLItem builds one pending item for a platform link. The matched link is
// stored rather than the surrounding capture, so a URL pasted mid-sentence
// enqueues cleanly.
func URLItem(ref classify.Reference) *Item {
	content := ref.Raw
	if ref.URL != nil {
		content = ref.URL.Raw
	}
	return &Item{Content: content, Kind: classify.KindURL}
}
