package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dmelton/deckhand/internal/shared"
	"github.com/dmelton/deckhand/internal/ui"
	"github.com/urfave/cli/v3"
)

// Panel launches the interactive terminal control panel.
func (r *Runner) Panel(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/deckhand-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	// Notifications render in the TUI status line, not on stdout.
	r.output = io.Discard

	p, err := r.ensurePanel(ctx, cmd)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, p)
	program := tea.NewProgram(model)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
