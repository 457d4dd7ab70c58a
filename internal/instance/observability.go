package instance

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/go-logr/logr"
)

// Observer receives structured events from the lifecycle operations.
type Observer interface {
	// Event emits a structured event
	Event(event Event)

	// Progress reports progress of a poll loop
	Progress(operation string, current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured lifecycle event.
type Event struct {
	Type      EventType
	Operation string
	Message   string
	Resource  string
	Timestamp time.Time
	Fields    map[string]string
}

// EventType represents the type of lifecycle event.
type EventType string

const (
	EventOperationStarted   EventType = "operation.started"
	EventOperationCompleted EventType = "operation.completed"
	EventOperationFailed    EventType = "operation.failed"

	EventResourceCreating EventType = "resource.creating"
	EventResourceCreated  EventType = "resource.created"
	EventResourceExists   EventType = "resource.exists"
	EventResourceDeleting EventType = "resource.deleting"
	EventResourceDeleted  EventType = "resource.deleted"
	EventResourceSkipped  EventType = "resource.skipped"

	EventStateChanged EventType = "state.changed"

	EventValidationWarning EventType = "validation.warning"

	EventProgress EventType = "progress"
)

// LogObserver writes events to a logr.Logger.
type LogObserver struct {
	log    logr.Logger
	fields map[string]string
}

// NewLogObserver creates an observer logging through log.
func NewLogObserver(log logr.Logger) *LogObserver {
	return &LogObserver{log: log, fields: map[string]string{}}
}

// Event implements Observer.
func (o *LogObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	kv := []any{"event", string(event.Type)}
	if event.Operation != "" {
		kv = append(kv, "operation", event.Operation)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	merged := maps.Clone(o.fields)
	maps.Copy(merged, event.Fields)
	for _, k := range slices.Sorted(maps.Keys(merged)) {
		kv = append(kv, k, merged[k])
	}

	if event.Type == EventOperationFailed {
		o.log.Error(nil, event.Message, kv...)
		return
	}
	level := 0
	if event.Type == EventProgress {
		level = 1
	}
	o.log.V(level).Info(event.Message, kv...)
}

// Progress implements Observer.
func (o *LogObserver) Progress(operation string, current, total int) {
	o.Event(Event{
		Type:      EventProgress,
		Operation: operation,
		Message:   fmt.Sprintf("poll %d/%d", current, total),
	})
}

// WithFields implements Observer.
func (o *LogObserver) WithFields(fields map[string]string) Observer {
	merged := maps.Clone(o.fields)
	maps.Copy(merged, fields)
	return &LogObserver{log: o.log, fields: merged}
}

// LogOperationStart logs the start of an operation.
func LogOperationStart(o Observer, operation string) {
	o.Event(Event{
		Type:      EventOperationStarted,
		Operation: operation,
		Message:   fmt.Sprintf("Starting %s", operation),
	})
}

// LogOperationComplete logs the successful completion of an operation.
func LogOperationComplete(o Observer, operation string, duration time.Duration) {
	o.Event(Event{
		Type:      EventOperationCompleted,
		Operation: operation,
		Message:   fmt.Sprintf("Completed %s in %s", operation, duration.Round(time.Millisecond)),
		Fields:    map[string]string{"duration": duration.String()},
	})
}

// LogOperationFailed logs an operation failure.
func LogOperationFailed(o Observer, operation string, err error) {
	o.Event(Event{
		Type:      EventOperationFailed,
		Operation: operation,
		Message:   fmt.Sprintf("%s failed: %v", operation, err),
		Fields:    map[string]string{"error": err.Error()},
	})
}

// LogResourceCreating logs that an instance is being created.
func LogResourceCreating(o Observer, operation, name string) {
	o.Event(Event{
		Type:      EventResourceCreating,
		Operation: operation,
		Message:   fmt.Sprintf("Creating instance %s", name),
		Resource:  name,
	})
}

// LogResourceCreated logs that an instance was created.
func LogResourceCreated(o Observer, operation, id string) {
	o.Event(Event{
		Type:      EventResourceCreated,
		Operation: operation,
		Message:   fmt.Sprintf("Created instance %s", id),
		Resource:  id,
	})
}

// LogResourceExists logs that an instance already exists.
func LogResourceExists(o Observer, operation, id string) {
	o.Event(Event{
		Type:      EventResourceExists,
		Operation: operation,
		Message:   fmt.Sprintf("Using existing instance %s", id),
		Resource:  id,
	})
}

// LogResourceDeleting logs that an instance is being deleted.
func LogResourceDeleting(o Observer, operation, id string) {
	o.Event(Event{
		Type:      EventResourceDeleting,
		Operation: operation,
		Message:   fmt.Sprintf("Terminating instance %s", id),
		Resource:  id,
	})
}

// LogResourceDeleted logs that an instance was deleted.
func LogResourceDeleted(o Observer, operation, id string) {
	o.Event(Event{
		Type:      EventResourceDeleted,
		Operation: operation,
		Message:   fmt.Sprintf("Terminated instance %s", id),
		Resource:  id,
	})
}

// LogResourceSkipped logs a step left out, with the reason.
func LogResourceSkipped(o Observer, operation, id, reason string) {
	o.Event(Event{
		Type:      EventResourceSkipped,
		Operation: operation,
		Message:   reason,
		Resource:  id,
	})
}

// LogValidationWarning logs a non-fatal problem with the inputs.
func LogValidationWarning(o Observer, operation, message string) {
	o.Event(Event{
		Type:      EventValidationWarning,
		Operation: operation,
		Message:   message,
	})
}
