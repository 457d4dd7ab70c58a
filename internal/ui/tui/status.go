package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/imamik/instancectl/internal/instance"
)

// Status is the recorded state of one node instance.
type Status struct {
	DeploymentID string
	NodeID       string
	State        instance.State
	Properties   map[string]any
}

// hiddenProperties are never rendered in full.
var hiddenProperties = map[string]bool{
	instance.KeyPassword:    true,
	instance.KeyClientToken: true,
}

// RenderStatus renders the recorded status once using lipgloss.
func RenderStatus(s Status) string {
	var b strings.Builder

	title := fmt.Sprintf("  instancectl status: %s/%s", s.DeploymentID, s.NodeID)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("=", len(title)-2)))
	b.WriteString("\n")

	fmt.Fprintf(&b, "  %s  %s\n", dimStyle.Render(fmt.Sprintf("%-18s", "lifecycle")), stateStyle(string(s.State))(string(s.State)))

	keys := slices.DeleteFunc(slices.Sorted(maps.Keys(s.Properties)), func(k string) bool {
		return k == instance.KeyLifecycleState
	})
	if len(keys) == 0 {
		b.WriteString(dimStyle.Render("  No runtime properties recorded."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(sectionStyle.Render("  Runtime properties"))
	b.WriteString("\n")
	for _, k := range keys {
		value := fmt.Sprint(s.Properties[k])
		if hiddenProperties[k] {
			value = "<redacted>"
		}
		fmt.Fprintf(&b, "  %s  %s\n", dimStyle.Render(fmt.Sprintf("%-18s", k)), readyStyle.Render(value))
	}
	return b.String()
}
