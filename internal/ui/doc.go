// Package ui implements an interactive terminal queue browser using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow over the download queue:
//  1. [QueueListView] : Browse queue items with status glyphs and live refresh
//  2. [DetailView] : Inspect one item's resolved metadata, source URL, and errors
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// The item list reloads from the store on a fixed tick, so a running watch
// process's progress shows up without any coupling between the two processes
// beyond the shared SQLite file.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, t, x, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
