package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songx/internal/shared"
	"github.com/desertthunder/songx/internal/tasks"
	"github.com/desertthunder/songx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for searching and saving songs.
//
// Saving is disabled when the library database cannot be opened.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/songx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	var saver ui.Saver
	if repo, db, err := r.openLibrary(); err != nil {
		r.logger.Warn("library unavailable, saving disabled", "error", err)
	} else {
		defer db.Close()
		saver = tasks.NewLibrarian(repo, r.logger)
	}

	model := ui.NewModel(ctx, r.registry(), saver, cmd.Int("limit"))
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
