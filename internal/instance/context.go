package instance

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/instancectl/internal/agent"
	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/node"
)

// Context holds the state shared by one lifecycle operation.
type Context struct {
	context.Context
	Node     *node.Instance
	Client   compute.Client
	Agent    agent.ScriptProducer
	Observer Observer
	Timeouts *config.Timeouts

	// NewToken produces idempotency tokens for RunInstances.
	NewToken func() string
}

// Option customizes a Context.
type Option func(*Context)

// WithObserver sets the observer events are sent to.
func WithObserver(o Observer) Option {
	return func(c *Context) { c.Observer = o }
}

// WithTimeouts overrides the timeouts loaded from the environment.
func WithTimeouts(t *config.Timeouts) Option {
	return func(c *Context) { c.Timeouts = t }
}

// WithAgent sets the agent script producer.
func WithAgent(p agent.ScriptProducer) Option {
	return func(c *Context) { c.Agent = p }
}

// WithTokenSource sets the idempotency token generator.
func WithTokenSource(f func() string) Option {
	return func(c *Context) { c.NewToken = f }
}

// NewContext creates a Context for one operation on n. The client is
// wrapped so every remote call is counted in the remote call metric.
func NewContext(ctx context.Context, n *node.Instance, client compute.Client, opts ...Option) *Context {
	if n.Runtime == nil {
		n.Runtime = node.NewRuntimeProperties(nil)
	}
	c := &Context{
		Context:  ctx,
		Node:     n,
		Client:   instrument(client),
		Agent:    agent.NewInstaller(n.NodeName),
		Timeouts: config.LoadTimeouts(),
		NewToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Observer == nil {
		c.Observer = NewLogObserver(logr.FromContextOrDiscard(ctx))
	}
	c.Observer = c.Observer.WithFields(map[string]string{
		"deployment": n.DeploymentID,
		"node":       n.ID,
	})
	return c
}

func (c *Context) runtime() *node.RuntimeProperties {
	return c.Node.Runtime
}

func (c *Context) recorder() Recorder {
	return Recorder{runtime: c.Node.Runtime}
}
