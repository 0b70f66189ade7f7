package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/dustin/go-humanize"

	"github.com/desertthunder/cliptune/internal/queue"
)

var _ list.Item = queueItem{}

// queueItem wraps [queue.Item] to implement [list.Item].
type queueItem struct {
	item *queue.Item
}

func (i queueItem) FilterValue() string { return i.item.Display() }

func (i queueItem) Title() string {
	glyph := statusStyle(i.item.Status).Render(statusGlyph(i.item.Status))
	label := i.item.Display()
	if i.item.TotalTracks > 1 {
		label = fmt.Sprintf("[%d/%d] %s", i.item.TrackIndex, i.item.TotalTracks, label)
	}
	return fmt.Sprintf("%s %s", glyph, label)
}

func (i queueItem) Description() string {
	parts := []string{string(i.item.Status)}
	if i.item.Confidence > 0 {
		parts = append(parts, fmt.Sprintf("confidence %.2f", i.item.Confidence))
	}
	if !i.item.UpdatedAt.IsZero() {
		parts = append(parts, humanize.Time(i.item.UpdatedAt))
	}
	return strings.Join(parts, " • ")
}
