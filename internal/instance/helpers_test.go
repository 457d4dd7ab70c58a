package instance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/node"
)

const testImage = "ami-e214778a"

func fastTimeouts() *config.Timeouts {
	return &config.Timeouts{
		StateChange:       5 * time.Second,
		RemoteCall:        time.Second,
		RetryMaxAttempts:  5,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,
	}
}

// testNode returns a compute node with the default test properties.
func testNode(mutate ...func(*node.Instance)) *node.Instance {
	n := &node.Instance{
		DeploymentID:  "dep",
		ID:            "web_abc123",
		NodeName:      "web",
		TypeHierarchy: []string{"cloudify.nodes.Root", node.ComputeType},
		Properties: node.Properties{
			ImageID:      testImage,
			InstanceType: "t1.micro",
			Parameters: map[string]any{
				"security_group_ids":                   []any{"sg-73cd3f1e"},
				"instance_initiated_shutdown_behavior": "stop",
			},
			AgentConfig: node.AgentConfig{InstallMethod: node.InstallNone},
		},
		Runtime: node.NewRuntimeProperties(nil),
	}
	for _, m := range mutate {
		m(n)
	}
	return n
}

func newTestContext(t *testing.T, n *node.Instance, client compute.Client, opts ...Option) (*Context, *mockObserver) {
	t.Helper()
	obs := &mockObserver{}
	tokens := 0
	base := []Option{
		WithTimeouts(fastTimeouts()),
		WithObserver(obs),
		WithTokenSource(func() string {
			tokens++
			return fmt.Sprintf("token-%d", tokens)
		}),
	}
	return NewContext(context.Background(), n, client, append(base, opts...)...), obs
}

func newFake() *compute.FakeCloud {
	f := compute.NewFakeCloud()
	f.AddImage(compute.Image{ID: testImage, State: compute.ImageStateAvailable})
	return f
}

// mockObserver records events for assertions.
type mockObserver struct {
	mu     sync.Mutex
	events []Event
}

func (m *mockObserver) Event(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *mockObserver) Progress(operation string, current, total int) {}

func (m *mockObserver) WithFields(map[string]string) Observer {
	return m
}

func (m *mockObserver) count(t EventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (m *mockObserver) messages(t EventType) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e.Message)
		}
	}
	return out
}
