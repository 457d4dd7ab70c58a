package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/instancectl/internal/instance"
)

// maxSteps bounds the rendered event history.
const maxSteps = 12

// Step is one rendered line of the operation history.
type Step struct {
	Type    instance.EventType
	Message string
	At      time.Time
}

// Model is the Bubble Tea model of one running operation.
type Model struct {
	NodeName  string
	Operation string

	// Lifecycle state as last reported by a state change.
	State string

	Steps []Step

	// Polling progress of the current wait, zero when not waiting.
	PollCurrent int
	PollTotal   int

	StartTime    time.Time
	SpinnerFrame int

	// UI state
	Width int
	Err   error
	Done  bool
}

// NewOperationModel creates a model for operation on nodeName. state is
// the lifecycle state recorded before the operation starts.
func NewOperationModel(nodeName, operation, state string) Model {
	return Model{
		NodeName:  nodeName,
		Operation: operation,
		State:     state,
		StartTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width

	case EventMsg:
		m.applyEvent(msg.Event)

	case ProgressMsg:
		m.PollCurrent = msg.Current
		m.PollTotal = msg.Total

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyEvent(ev instance.Event) {
	switch ev.Type {
	case instance.EventProgress:
		return
	case instance.EventStateChanged:
		if to := ev.Fields["to"]; to != "" {
			m.State = to
		}
		m.PollCurrent, m.PollTotal = 0, 0
	}

	m.Steps = append(m.Steps, Step{Type: ev.Type, Message: ev.Message, At: ev.Timestamp})
	if len(m.Steps) > maxSteps {
		m.Steps = m.Steps[len(m.Steps)-maxSteps:]
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
