package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pinmap/internal/shared"
	"github.com/desertthunder/pinmap/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal map surface.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/pinmap-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	if err := r.init(ctx); err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		Store:    r.store,
		Pipeline: r.pipeline,
		Map:      r.config.Map,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
