package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cliptune/internal/queue"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueueListView ViewState = iota
	DetailView
)

// Store is the slice of the queue store the browser needs.
type Store interface {
	List(status queue.Status, limit int) ([]*queue.Item, error)
	Counts() (map[queue.Status]int, error)
	Retry(id string) error
	Clear(status queue.Status) (int64, error)
}

// listLimit caps how many items the browser loads per refresh.
const listLimit = 200

// Model represents the TUI application state.
type Model struct {
	view     ViewState
	store    Store
	width    int
	height   int
	list     list.Model
	ready    bool
	counts   map[queue.Status]int
	selected *queue.Item
	note     string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model over the queue store.
func NewModel(store Store) *Model {
	return &Model{
		view:  QueueListView,
		store: store,
		help:  help.New(),
		keys:  newKeyMap(),
	}
}

// Init loads the queue and starts the refresh tick.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadItems(), refreshTick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.ready {
			m.list.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case QueueListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case refreshTickMsg:
		return m, tea.Batch(m.loadItems(), refreshTick())

	case itemsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.counts = msg.counts
		m.setItems(msg.items)
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.note = msg.note
		return m, m.loadItems()
	}

	if m.ready {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DetailView:
		return m.renderDetail()
	default:
		return m.renderList()
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Let the list's filter input capture keystrokes first.
	if m.ready && m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.selectedItem(); ok {
			m.selected = item
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.retry):
		if item, ok := m.selectedItem(); ok && item.Status.Terminal() {
			return m, m.retryItem(item.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.clear):
		return m, m.clearFinished()
	case key.Matches(msg, m.keys.refresh):
		return m, m.loadItems()
	}

	if m.ready {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = QueueListView
		m.selected = nil
		return m, nil
	case key.Matches(msg, m.keys.retry):
		if m.selected != nil && m.selected.Status.Terminal() {
			id := m.selected.ID
			m.view = QueueListView
			m.selected = nil
			return m, m.retryItem(id)
		}
	}
	return m, nil
}

func (m *Model) selectedItem() (*queue.Item, bool) {
	if !m.ready {
		return nil, false
	}
	selected := m.list.SelectedItem()
	if selected == nil {
		return nil, false
	}
	qi, ok := selected.(queueItem)
	if !ok {
		return nil, false
	}
	return qi.item, true
}

// setItems replaces the list contents while keeping the cursor in place.
func (m *Model) setItems(items []*queue.Item) {
	entries := make([]list.Item, len(items))
	for i, item := range items {
		entries[i] = queueItem{item: item}
	}

	if !m.ready {
		m.list = list.New(entries, list.NewDefaultDelegate(), 0, 0)
		m.list.Title = "Download Queue"
		m.list.SetShowHelp(false)
		m.list.SetSize(m.width-4, m.height-8)
		m.ready = true
		return
	}

	index := m.list.Index()
	m.list.SetItems(entries)
	if index < len(entries) {
		m.list.Select(index)
	}
}

func (m *Model) loadItems() tea.Cmd {
	return func() tea.Msg {
		items, err := m.store.List("", listLimit)
		if err != nil {
			return itemsLoadedMsg{err: err}
		}
		counts, err := m.store.Counts()
		if err != nil {
			return itemsLoadedMsg{err: err}
		}
		return itemsLoadedMsg{items: items, counts: counts}
	}
}

func (m *Model) retryItem(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.Retry(id); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{note: "Requeued item"}
	}
}

func (m *Model) clearFinished() tea.Cmd {
	return func() tea.Msg {
		removed, err := m.store.Clear("")
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{note: fmt.Sprintf("Removed %d finished items", removed)}
	}
}

func (m *Model) renderList() string {
	if !m.ready {
		return "Loading queue..."
	}

	var footer []string
	if m.counts != nil {
		footer = append(footer, styles.help.Render(fmt.Sprintf(
			"pending %d • active %d • done %d • exhausted %d • failed %d",
			m.counts[queue.StatusPending],
			m.counts[queue.StatusInProgress],
			m.counts[queue.StatusCompleted]+m.counts[queue.StatusSkipped],
			m.counts[queue.StatusExhausted],
			m.counts[queue.StatusFailed],
		)))
	}
	if m.err != nil {
		footer = append(footer, styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	} else if m.note != "" {
		footer = append(footer, styles.ok.Render(m.note))
	}
	footer = append(footer, m.help.ShortHelpView(m.keys.ShortHelp()))

	return fmt.Sprintf("%s\n\n%s", m.list.View(), strings.Join(footer, "\n"))
}

func (m *Model) renderDetail() string {
	item := m.selected
	if item == nil {
		return "Nothing selected"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(item.Display()) + "\n\n")

	write := func(label, value string) {
		if value != "" {
			b.WriteString(fmt.Sprintf("%-12s %s\n", label+":", value))
		}
	}

	write("Status", statusStyle(item.Status).Render(string(item.Status)))
	write("Content", item.Content)
	write("Artist", item.Artist)
	write("Title", item.Title)
	write("Album", item.Album)
	write("Year", item.Year)
	if item.Confidence > 0 {
		write("Confidence", fmt.Sprintf("%.2f", item.Confidence))
	}
	write("Source", item.URL)
	write("File", item.File)
	if item.Batch != "" {
		write("Batch", fmt.Sprintf("%s (%d/%d)", item.Batch, item.TrackIndex, item.TotalTracks))
	}
	if item.Error != "" {
		write("Error", styles.err.Render(item.Error))
	}
	write("Updated", item.UpdatedAt.Local().Format("Jan 02 15:04:05"))

	helpKeys := []key.Binding{m.keys.back, m.keys.retry, m.keys.quit}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}
