package instance

import (
	"fmt"
	"slices"

	"github.com/imamik/instancectl/internal/node"
)

// State is the lifecycle state recorded for a node instance.
type State string

// Lifecycle states.
const (
	StateUncreated   State = "uncreated"
	StateCreating    State = "creating"
	StateRunning     State = "running"
	StateStarting    State = "starting"
	StateStopping    State = "stopping"
	StateStopped     State = "stopped"
	StateTerminating State = "terminating"
	StateTerminated  State = "terminated"
)

// transitions lists the states reachable from each state. Every
// in-progress state may be re-entered so a retried operation can resume.
var transitions = map[State][]State{
	StateUncreated:   {StateCreating},
	StateCreating:    {StateCreating, StateRunning, StateStarting, StateTerminating},
	StateRunning:     {StateRunning, StateStarting, StateStopping, StateTerminating},
	StateStarting:    {StateStarting, StateRunning, StateStopping, StateTerminating},
	StateStopping:    {StateStopping, StateStopped, StateStarting, StateTerminating},
	StateStopped:     {StateStopped, StateStarting, StateStopping, StateTerminating},
	StateTerminating: {StateTerminating, StateTerminated},
	StateTerminated:  nil,
}

// CurrentState returns the recorded lifecycle state. Runtime properties
// without a recorded state are running when they hold an identifier.
func CurrentState(rt *node.RuntimeProperties) State {
	if s := rt.GetString(KeyLifecycleState); s != "" {
		return State(s)
	}
	if rt.GetString(KeyResourceID) != "" {
		return StateRunning
	}
	return StateUncreated
}

// CanTransition reports whether to is reachable from from.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

func (c *Context) transition(operation string, to State) error {
	from := CurrentState(c.runtime())
	if from == StateTerminated {
		return configErrorf("instance is terminated")
	}
	if !CanTransition(from, to) {
		return configErrorf("cannot %s instance in state %s", operation, from)
	}
	if from != to {
		c.runtime().Set(KeyLifecycleState, string(to))
		c.Observer.Event(Event{
			Type:      EventStateChanged,
			Operation: operation,
			Message:   fmt.Sprintf("%s -> %s", from, to),
			Fields:    map[string]string{"from": string(from), "to": string(to)},
		})
	}
	return nil
}
