package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cliptune/internal/shared"
	"github.com/desertthunder/cliptune/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive queue browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)

	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/cliptune-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(store)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
