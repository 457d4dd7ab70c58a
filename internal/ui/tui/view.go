package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/instancectl/internal/instance"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	if m.PollTotal > 0 && !m.Done && m.Err == nil {
		renderProgressBar(&b, m)
	}
	renderSteps(&b, m)
	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	b.WriteString(titleStyle.Render(fmt.Sprintf("instancectl %s: %s", m.Operation, m.NodeName)))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Done:
		status += readyStyle.Render("Done")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame) + " ")
	}
	if m.State != "" {
		status += "  " + stateStyle(m.State)(m.State)
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = max(m.Width-30, 10)
	}
	progress := float64(m.PollCurrent) / float64(m.PollTotal)
	filled := min(int(float64(barWidth)*progress), barWidth)

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))
	fmt.Fprintf(b, "  %s poll %d/%d\n", bar, m.PollCurrent, m.PollTotal)
}

func renderSteps(b *strings.Builder, m Model) {
	if len(m.Steps) == 0 {
		return
	}
	b.WriteString(sectionStyle.Render("  Events"))
	b.WriteString("\n")

	for _, step := range m.Steps {
		icon, style := eventIcon(step.Type)
		fmt.Fprintf(b, "    %s %s %s\n", style(icon), dimStyle.Render(step.At.Format(time.TimeOnly)), style(step.Message))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	b.WriteString(footerStyle.Render(fmt.Sprintf("  elapsed: %s  |  q: hide", elapsed)))
	b.WriteString("\n")
}

func eventIcon(t instance.EventType) (string, styleFunc) {
	switch t {
	case instance.EventOperationFailed:
		return crossMark, sf(failedStyle)
	case instance.EventOperationCompleted, instance.EventResourceCreated, instance.EventResourceDeleted:
		return checkMark, sf(readyStyle)
	case instance.EventValidationWarning:
		return warnMark, sf(warningStyle)
	case instance.EventResourceSkipped, instance.EventResourceExists:
		return skipMark, sf(dimStyle)
	case instance.EventStateChanged:
		return pending, sf(activeStyle)
	default:
		return pending, sf(dimStyle)
	}
}

func stateStyle(state string) styleFunc {
	switch instance.State(state) {
	case instance.StateRunning:
		return sf(readyStyle)
	case instance.StateStopped, instance.StateUncreated:
		return sf(dimStyle)
	case instance.StateTerminated:
		return sf(failedStyle)
	default:
		return sf(warningStyle)
	}
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
