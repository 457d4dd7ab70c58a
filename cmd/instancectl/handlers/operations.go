package handlers

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/imamik/instancectl/internal/instance"
	"github.com/imamik/instancectl/internal/store"
	"github.com/imamik/instancectl/internal/ui/tui"
)

// Create handles the create command.
func Create(ctx context.Context, opts Options) error {
	return withSession(ctx, instance.OpCreate, opts, func(s *session) error {
		args, err := loadArgs(opts.ArgsPath)
		if err != nil {
			return err
		}
		return instance.Create(s.ctx, args)
	})
}

// Start handles the start command.
func Start(ctx context.Context, opts Options) error {
	return withSession(ctx, instance.OpStart, opts, func(s *session) error {
		return instance.Start(s.ctx)
	})
}

// Stop handles the stop command.
func Stop(ctx context.Context, opts Options) error {
	return withSession(ctx, instance.OpStop, opts, func(s *session) error {
		return instance.Stop(s.ctx)
	})
}

// Delete handles the delete command.
func Delete(ctx context.Context, opts Options) error {
	return withSession(ctx, instance.OpDelete, opts, func(s *session) error {
		return instance.Delete(s.ctx)
	})
}

// Validate handles the validate command.
func Validate(ctx context.Context, opts Options) error {
	return withSession(ctx, instance.OpCreationValidation, opts, func(s *session) error {
		return instance.CreationValidation(s.ctx)
	})
}

// ModifyAttributes handles the modify-attributes command and prints
// whether any change was submitted.
func ModifyAttributes(ctx context.Context, opts Options, out io.Writer) error {
	return withSession(ctx, instance.OpModifyAttributes, opts, func(s *session) error {
		attrs, err := loadArgs(opts.ArgsPath)
		if err != nil {
			return err
		}
		submitted, err := instance.ModifyAttributes(s.ctx, attrs)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, submitted)
		return nil
	})
}

func withSession(ctx context.Context, operation string, opts Options, fn func(*session) error) error {
	s, err := openSession(ctx, operation, opts)
	if err != nil {
		return err
	}
	if !useTUI(opts) {
		return s.finish(ctx, fn(s))
	}

	n := s.ctx.Node
	model := tui.NewOperationModel(n.ID, operation, string(instance.CurrentState(n.Runtime)))
	err = tui.RunOperationTUI(ctx, model, func(o instance.Observer) error {
		s.ctx.Observer = o.WithFields(map[string]string{"deployment": n.DeploymentID, "node": n.ID})
		return fn(s)
	})
	return s.finish(ctx, err)
}

// Status prints the lifecycle state and runtime properties recorded for
// the node without contacting the provider.
func Status(ctx context.Context, opts Options, out io.Writer) error {
	_, n, _, err := loadNode(ctx, "status", opts)
	if err != nil {
		return err
	}

	status := tui.Status{
		DeploymentID: n.DeploymentID,
		NodeID:       n.ID,
		State:        instance.CurrentState(n.Runtime),
		Properties:   n.Runtime.Snapshot(),
	}
	if isTerminal() {
		fmt.Fprint(out, tui.RenderStatus(status))
		return nil
	}

	doc := map[string]any{
		"deployment_id":      status.DeploymentID,
		"node_instance_id":   status.NodeID,
		"lifecycle_state":    string(status.State),
		"runtime_properties": redact(status.Properties),
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// Forget removes the runtime properties stored for a node so the next
// invocation starts from the node document again. A node that still
// records a live instance is refused unless force is set.
func Forget(ctx context.Context, opts Options, force bool, out io.Writer) error {
	_, n, st, err := loadNode(ctx, "forget", opts)
	if err != nil {
		return err
	}

	state := instance.CurrentState(n.Runtime)
	if !force && state != instance.StateUncreated && state != instance.StateTerminated {
		return &instance.ConfigError{Message: fmt.Sprintf("instance of %s is recorded in state %s; delete it first or use --force", n.ID, state)}
	}

	if err := st.Delete(ctx, store.Key(n.DeploymentID, n.ID)); err != nil {
		return &instance.TransientError{Op: "delete runtime properties", Err: err}
	}
	fmt.Fprintf(out, "Forgot runtime properties of %s/%s\n", n.DeploymentID, n.ID)
	return nil
}

func redact(props map[string]any) map[string]any {
	for _, k := range []string{instance.KeyPassword, instance.KeyClientToken} {
		if _, ok := props[k]; ok {
			props[k] = "<redacted>"
		}
	}
	return props
}
