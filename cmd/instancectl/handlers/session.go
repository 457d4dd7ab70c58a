package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/instance"
	"github.com/imamik/instancectl/internal/node"
	"github.com/imamik/instancectl/internal/platform/ec2"
	"github.com/imamik/instancectl/internal/platform/hcloud"
	"github.com/imamik/instancectl/internal/store"
)

// Factory functions for dependency injection in tests.
var (
	loadConfig       = config.Load
	newStore         = store.New
	newComputeClient = defaultComputeClient
	loadTimeouts     = config.LoadTimeouts
)

// Options carries the flags shared by every lifecycle command.
type Options struct {
	ConfigPath  string
	NodePath    string
	ArgsPath    string
	RetryNumber int
	// Interactive renders progress in a terminal view instead of logs when
	// stdout is a terminal.
	Interactive bool
}

// session holds everything one operation needs.
type session struct {
	cfg   *config.Config
	log   logr.Logger
	store store.Store
	key   string
	ctx   *instance.Context
}

func defaultComputeClient(ctx context.Context, cfg *config.Config, timeouts *config.Timeouts) (compute.Client, error) {
	switch cfg.Provider {
	case config.ProviderHCloud:
		return hcloud.FromConfig(cfg.HCloud, timeouts), nil
	case config.ProviderEC2:
		client, err := ec2.New(ctx, cfg.EC2)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// loadNode loads configuration and the node instance and merges the stored
// runtime properties into it.
func loadNode(ctx context.Context, operation string, opts Options) (*config.Config, *node.Instance, store.Store, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, nil, nil, configError("failed to load config", err)
	}

	n, err := node.LoadDocument(opts.NodePath)
	if err != nil {
		return nil, nil, nil, configError("failed to load node", err)
	}
	n.Operation = node.Operation{Name: operation, RetryNumber: opts.RetryNumber}
	if n.Runtime == nil {
		n.Runtime = node.NewRuntimeProperties(nil)
	}

	st, err := newStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, nil, configError("failed to open runtime property store", err)
	}
	// Properties saved by earlier invocations replace those of the
	// document, even when they were all cleared. The document only seeds
	// a node that has never been stored.
	stored, err := st.Load(ctx, store.Key(n.DeploymentID, n.ID))
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, nil, nil, &instance.TransientError{Op: "load runtime properties", Err: err}
	default:
		for _, k := range n.Runtime.Keys() {
			n.Runtime.Delete(k)
		}
		for k, v := range stored {
			n.Runtime.Set(k, v)
		}
	}
	n.Runtime.MarkClean()
	return cfg, n, st, nil
}

// openSession loads the node instance and connects to the provider.
func openSession(ctx context.Context, operation string, opts Options) (*session, error) {
	cfg, n, st, err := loadNode(ctx, operation, opts)
	if err != nil {
		return nil, err
	}

	out := logOutput
	if useTUI(opts) {
		out = io.Discard
	}
	log := newLogger(cfg.LogLevel, out).WithValues("operation", operation)

	timeouts := loadTimeouts()
	client, err := newComputeClient(ctx, cfg, timeouts)
	if err != nil {
		return nil, configError("failed to create compute client", err)
	}

	log.V(1).Info("session opened", "node", n.ID, "provider", cfg.Provider, "store", cfg.Store.Backend)

	ictx := instance.NewContext(logr.NewContext(ctx, log), n, client,
		instance.WithTimeouts(timeouts),
		instance.WithObserver(instance.NewLogObserver(log)),
	)
	key := store.Key(n.DeploymentID, n.ID)
	return &session{cfg: cfg, log: log, store: st, key: key, ctx: ictx}, nil
}

// finish persists changed runtime properties and writes metrics. It runs
// after failed operations too, so partial progress such as a reservation
// id survives for the retry.
func (s *session) finish(ctx context.Context, opErr error) error {
	ctx = context.WithoutCancel(ctx)
	errs := []error{opErr}

	rt := s.ctx.Node.Runtime
	if rt.Dirty() {
		if err := s.store.Save(ctx, s.key, rt.Snapshot()); err != nil {
			errs = append(errs, &instance.TransientError{Op: "save runtime properties", Err: err})
		} else {
			rt.MarkClean()
		}
	}

	if s.cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(s.cfg.MetricsFile, instance.Registry); err != nil {
			s.log.Error(err, "failed to write metrics", "path", s.cfg.MetricsFile)
		}
	}

	return errors.Join(errs...)
}

func configError(msg string, err error) error {
	return &instance.ConfigError{Message: msg, Err: err}
}
