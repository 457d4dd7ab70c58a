package tui

import (
	"maps"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/instancectl/internal/instance"
)

// Observer forwards lifecycle events to a Bubble Tea program.
type Observer struct {
	send   func(tea.Msg)
	fields map[string]string
}

var _ instance.Observer = (*Observer)(nil)

// NewObserver returns an Observer delivering messages through send,
// usually (*tea.Program).Send.
func NewObserver(send func(tea.Msg)) *Observer {
	return &Observer{send: send, fields: map[string]string{}}
}

// Event implements instance.Observer.
func (o *Observer) Event(event instance.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if len(o.fields) > 0 {
		merged := maps.Clone(o.fields)
		maps.Copy(merged, event.Fields)
		event.Fields = merged
	}
	o.send(EventMsg{Event: event})
}

// Progress implements instance.Observer.
func (o *Observer) Progress(operation string, current, total int) {
	o.send(ProgressMsg{Operation: operation, Current: current, Total: total})
}

// WithFields implements instance.Observer.
func (o *Observer) WithFields(fields map[string]string) instance.Observer {
	merged := maps.Clone(o.fields)
	maps.Copy(merged, fields)
	return &Observer{send: o.send, fields: merged}
}
