package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/instancectl/internal/instance"
)

// RunOperationTUI runs fn while rendering its events. fn receives the
// observer to report through and runs on its own goroutine.
func RunOperationTUI(ctx context.Context, m Model, fn func(instance.Observer) error) error {
	p := tea.NewProgram(m, tea.WithContext(ctx))

	var opErr error
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		opErr = fn(NewObserver(p.Send))
		if opErr != nil {
			p.Send(ErrMsg{Err: opErr})
			return
		}
		p.Send(DoneMsg{})
	}()

	_, err := p.Run()
	// Quitting the view does not abort the operation.
	<-finished
	if opErr != nil {
		return opErr
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
