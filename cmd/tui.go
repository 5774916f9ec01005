package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/desertthunder/filmx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive collection browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	films, err := r.authed(cmd)
	if err != nil {
		return err
	}

	opts := ui.Options{
		PageSize:           r.config.UI.PageSize,
		MinSearchLength:    r.config.UI.MinSearchLength,
		NotificationWindow: r.config.UI.NotificationWindow(),
		Profile:            r.config.Session.Profile,
		Logger:             fileLogger,
	}
	if history, err := r.lookupHistory(); err != nil {
		fileLogger.Warn("lookup history unavailable", "error", err)
	} else {
		opts.History = history
	}

	model, err := ui.NewModel(ctx, films, opts)
	if err != nil {
		return err
	}
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
