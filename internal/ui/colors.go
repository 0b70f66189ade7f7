package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/cliptune/internal/queue"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// statusStyle picks the palette entry for a queue status.
func statusStyle(status queue.Status) lipgloss.Style {
	switch status {
	case queue.StatusCompleted, queue.StatusSkipped:
		return styles.ok
	case queue.StatusFailed:
		return styles.err
	case queue.StatusExhausted:
		return styles.warn
	default:
		return styles.help
	}
}

// statusGlyph is the single-rune marker shown beside each list entry.
func statusGlyph(status queue.Status) string {
	switch status {
	case queue.StatusPending:
		return "·"
	case queue.StatusInProgress:
		return "▶"
	case queue.StatusCompleted:
		return "✓"
	case queue.StatusSkipped:
		return "≡"
	case queue.StatusExhausted:
		return "?"
	case queue.StatusFailed:
		return "✗"
	default:
		return " "
	}
}
