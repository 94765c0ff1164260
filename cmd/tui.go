package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shelfbridge/internal/bridge"
	"github.com/desertthunder/shelfbridge/internal/ui"
)

// runMonitor runs the supervisor behind the live monitor. Quitting the monitor stops the bridge.
func (r *Runner) runMonitor(ctx context.Context, cancel context.CancelFunc, p *pipeline, updates <-chan bridge.Update) error {
	result := make(chan error, 1)
	stopped := make(chan error, 1)
	go func() {
		err := p.supervisor.Run(ctx)
		stopped <- err
		result <- err
	}()

	program := tea.NewProgram(ui.NewModel(updates, stopped), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := program.Run()

	cancel()
	err := <-result

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return err
}
