package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spool/internal/shared"
	"github.com/desertthunder/spool/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the two-tab interactive interface.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	cfg := r.cfg()
	logFile := cfg.App.LogFile
	if logFile == "" {
		logFile = "./tmp/spool-tui.log"
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(logFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	d, err := r.dispatcher(true)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		Dispatcher: d,
		Accounts:   r.store,
		Tokens:     r.tokens,
		Playlist:   cfg.Playlist,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
