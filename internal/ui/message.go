package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cliptune/internal/queue"
)

// itemsLoadedMsg carries a fresh snapshot of the queue.
type itemsLoadedMsg struct {
	items  []*queue.Item
	counts map[queue.Status]int
	err    error
}

// refreshTickMsg fires the periodic reload.
type refreshTickMsg time.Time

// actionDoneMsg reports the result of a retry or clear.
type actionDoneMsg struct {
	note string
	err  error
}

// refreshInterval is how often the list reloads from the store while the
// TUI is open.
const refreshInterval = 2 * time.Second

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}
