// Package tui provides a Bubble Tea terminal view of instance lifecycle
// operations and a styled rendering of recorded instance status.
package tui

import "github.com/imamik/instancectl/internal/instance"

// EventMsg carries a lifecycle event from the running operation.
type EventMsg struct{ Event instance.Event }

// ProgressMsg reports polling progress while waiting for a state.
type ProgressMsg struct {
	Operation string
	Current   int
	Total     int
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries the error the operation failed with.
type ErrMsg struct{ Err error }

// DoneMsg signals that the operation is complete.
type DoneMsg struct{}
