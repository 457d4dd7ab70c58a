package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/instance"
	"github.com/imamik/instancectl/internal/store"
)

const testNodeDocument = `
deployment_id: dep
node_instance_id: web_abc123
node_name: web
type_hierarchy: [cloudify.nodes.Root, cloudify.nodes.Compute]
properties:
  image_id: ami-e214778a
  instance_type: t1.micro
  parameters:
    security_group_ids: [sg-73cd3f1e]
  agent_config:
    install_method: none
`

type testEnv struct {
	cloud   *compute.FakeCloud
	store   *store.Memory
	cfg     *config.Config
	logs    *bytes.Buffer
	dir     string
	options Options
}

// setupHandlers replaces the factories with in-memory fakes. Handler tests
// mutate package state and must not run in parallel.
func setupHandlers(t *testing.T) *testEnv {
	t.Helper()
	origLoad, origStore, origClient, origTimeouts, origOut, origTerm := loadConfig, newStore, newComputeClient, loadTimeouts, logOutput, isTerminal
	t.Cleanup(func() {
		loadConfig, newStore, newComputeClient, loadTimeouts, logOutput, isTerminal = origLoad, origStore, origClient, origTimeouts, origOut, origTerm
	})
	isTerminal = func() bool { return false }

	env := &testEnv{
		cloud: compute.NewFakeCloud(),
		store: store.NewMemory(),
		cfg: &config.Config{
			Provider: config.ProviderEC2,
			Store:    config.StoreConfig{Backend: config.StoreMemory},
			LogLevel: "debug",
		},
		logs: &bytes.Buffer{},
		dir:  t.TempDir(),
	}
	env.cloud.AddImage(compute.Image{ID: "ami-e214778a", State: compute.ImageStateAvailable})

	loadConfig = func(string) (*config.Config, error) { return env.cfg, nil }
	newStore = func(context.Context, config.StoreConfig) (store.Store, error) { return env.store, nil }
	newComputeClient = func(context.Context, *config.Config, *config.Timeouts) (compute.Client, error) {
		return env.cloud, nil
	}
	loadTimeouts = func() *config.Timeouts {
		return &config.Timeouts{
			StateChange:       5 * time.Second,
			RemoteCall:        time.Second,
			RetryMaxAttempts:  5,
			RetryInitialDelay: time.Millisecond,
			RetryMaxDelay:     5 * time.Millisecond,
		}
	}
	logOutput = env.logs

	env.options = Options{NodePath: env.writeFile(t, "node.yaml", testNodeDocument)}
	return env
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (e *testEnv) stored(t *testing.T) map[string]any {
	t.Helper()
	props, err := e.store.Load(context.Background(), store.Key("dep", "web_abc123"))
	require.NoError(t, err)
	return props
}

func TestLifecycleAcrossInvocations(t *testing.T) {
	env := setupHandlers(t)
	ctx := context.Background()

	require.NoError(t, Create(ctx, env.options))
	props := env.stored(t)
	id, _ := props["aws_resource_id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "running", props["lifecycle_state"])
	assert.NotEmpty(t, props["ip"])

	require.NoError(t, Stop(ctx, env.options))
	props = env.stored(t)
	assert.Equal(t, "stopped", props["lifecycle_state"])
	assert.NotContains(t, props, "ip")

	require.NoError(t, Start(ctx, env.options))
	assert.Equal(t, "running", env.stored(t)["lifecycle_state"])

	require.NoError(t, Delete(ctx, env.options))
	props = env.stored(t)
	assert.Equal(t, "terminated", props["lifecycle_state"])
	assert.NotContains(t, props, "aws_resource_id")

	inst, ok := env.cloud.Instance(id)
	require.True(t, ok)
	assert.Equal(t, compute.StateTerminated, inst.State)

	err := Start(ctx, env.options)
	require.Error(t, err)
	assert.Equal(t, ExitNonRecoverable, ExitCode(err))
}

func TestCreate_WithArgs(t *testing.T) {
	env := setupHandlers(t)
	opts := env.options
	opts.ArgsPath = env.writeFile(t, "args.yaml", "instance_type: t3.large\n")

	require.NoError(t, Create(context.Background(), opts))
	assert.Equal(t, 1, env.cloud.RunCalls)

	id, _ := env.stored(t)["aws_resource_id"].(string)
	inst, ok := env.cloud.Instance(id)
	require.True(t, ok)
	assert.Equal(t, "t3.large", inst.InstanceType)
}

func TestCreate_SavesProgressOnFailure(t *testing.T) {
	env := setupHandlers(t)
	opts := env.options
	opts.ArgsPath = env.writeFile(t, "args.yaml", "subnet_id: subnet-missing\n")

	err := Create(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, ExitNonRecoverable, ExitCode(err))

	props := env.stored(t)
	assert.Equal(t, "creating", props["lifecycle_state"])
	assert.NotEmpty(t, props["client_token"])
}

func TestValidate(t *testing.T) {
	env := setupHandlers(t)
	require.NoError(t, Validate(context.Background(), env.options))

	doc := strings.Replace(testNodeDocument, "ami-e214778a", "ami-00000000", 1)
	opts := env.options
	opts.NodePath = env.writeFile(t, "bad.yaml", doc)
	err := Validate(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid id: ami-00000000")
	assert.Equal(t, ExitNonRecoverable, ExitCode(err))
}

func TestModifyAttributes(t *testing.T) {
	env := setupHandlers(t)
	ctx := context.Background()
	require.NoError(t, Create(ctx, env.options))

	opts := env.options
	opts.ArgsPath = env.writeFile(t, "attrs.yaml", "instanceType: t3.large\nbogus: 1\n")
	var out bytes.Buffer
	require.NoError(t, ModifyAttributes(ctx, opts, &out))
	assert.Equal(t, "true\n", out.String())

	id, _ := env.stored(t)["aws_resource_id"].(string)
	v, ok := env.cloud.Attribute(id, "instanceType")
	require.True(t, ok)
	assert.Equal(t, "t3.large", v)
}

func TestOpenSession_Errors(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		env := setupHandlers(t)
		loadConfig = func(string) (*config.Config, error) { return nil, errors.New("bad config") }
		err := Start(context.Background(), env.options)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
		assert.True(t, instance.IsNonRecoverable(err))
	})

	t.Run("missing node", func(t *testing.T) {
		env := setupHandlers(t)
		opts := env.options
		opts.NodePath = filepath.Join(env.dir, "missing.yaml")
		err := Start(context.Background(), opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load node")
	})

	t.Run("store unavailable", func(t *testing.T) {
		env := setupHandlers(t)
		newStore = func(context.Context, config.StoreConfig) (store.Store, error) {
			return failingStore{}, nil
		}
		err := Start(context.Background(), env.options)
		require.Error(t, err)
		assert.Equal(t, ExitRetryable, ExitCode(err))
	})

	t.Run("bad args", func(t *testing.T) {
		env := setupHandlers(t)
		opts := env.options
		opts.ArgsPath = env.writeFile(t, "args.yaml", "image_id: [")
		err := Create(context.Background(), opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse arguments")
	})
}

func TestMetricsFile(t *testing.T) {
	env := setupHandlers(t)
	env.cfg.MetricsFile = filepath.Join(env.dir, "instancectl.prom")

	require.NoError(t, Validate(context.Background(), env.options))
	data, err := os.ReadFile(env.cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "instancectl_operation_total")
}

func TestStoredPropertiesReplaceDocument(t *testing.T) {
	env := setupHandlers(t)
	ctx := context.Background()
	id := env.cloud.AddInstance(compute.Instance{State: compute.StateRunning})
	require.NoError(t, env.store.Save(ctx, store.Key("dep", "web_abc123"), map[string]any{
		"aws_resource_id": id,
		"lifecycle_state": "running",
	}))

	require.NoError(t, Stop(ctx, env.options))
	inst, ok := env.cloud.Instance(id)
	require.True(t, ok)
	assert.Equal(t, compute.StateStopped, inst.State)
}

func TestReleasedExternalStaysReleased(t *testing.T) {
	env := setupHandlers(t)
	ctx := context.Background()
	id := env.cloud.AddInstance(compute.Instance{State: compute.StateRunning})
	env.options.NodePath = env.writeFile(t, "external.yaml", fmt.Sprintf(`
deployment_id: dep
node_instance_id: web_abc123
node_name: web
type_hierarchy: [cloudify.nodes.Root, cloudify.nodes.Compute]
properties:
  use_external_resource: true
  resource_id: %[1]s
  image_id: ami-e214778a
  agent_config:
    install_method: none
runtime_properties:
  aws_resource_id: %[1]s
  lifecycle_state: running
`, id))

	require.NoError(t, Delete(ctx, env.options))
	assert.Empty(t, env.stored(t))

	_, n, _, err := loadNode(ctx, "status", env.options)
	require.NoError(t, err)
	assert.Empty(t, n.Runtime.Keys(), "an empty stored document still replaces the seed")

	inst, ok := env.cloud.Instance(id)
	require.True(t, ok)
	assert.Equal(t, compute.StateRunning, inst.State)
}

func TestForget(t *testing.T) {
	env := setupHandlers(t)
	ctx := context.Background()
	key := store.Key("dep", "web_abc123")

	require.NoError(t, Create(ctx, env.options))

	var out bytes.Buffer
	err := Forget(ctx, env.options, false, &out)
	require.Error(t, err)
	assert.Equal(t, ExitNonRecoverable, ExitCode(err))
	assert.Contains(t, err.Error(), "recorded in state running")
	assert.NotEmpty(t, env.stored(t))

	require.NoError(t, Delete(ctx, env.options))
	require.NoError(t, Forget(ctx, env.options, false, &out))
	assert.Contains(t, out.String(), "Forgot runtime properties of dep/web_abc123")
	_, err = env.store.Load(ctx, key)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, Create(ctx, env.options))
	require.NoError(t, Forget(ctx, env.options, true, &out))
	_, err = env.store.Load(ctx, key)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStatus(t *testing.T) {
	env := setupHandlers(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, Status(ctx, env.options, &out))
	assert.Contains(t, out.String(), "lifecycle_state: uncreated")

	require.NoError(t, Create(ctx, env.options))
	out.Reset()
	require.NoError(t, Status(ctx, env.options, &out))
	assert.Contains(t, out.String(), "lifecycle_state: running")
	assert.Contains(t, out.String(), "aws_resource_id: i-")
	assert.Contains(t, out.String(), "client_token: <redacted>")
	token, _ := env.stored(t)["client_token"].(string)
	require.NotEmpty(t, token)
	assert.NotContains(t, out.String(), token)
}

func TestInteractiveWithoutTerminal(t *testing.T) {
	env := setupHandlers(t)
	opts := env.options
	opts.Interactive = true

	require.NoError(t, Validate(context.Background(), opts))
	assert.Contains(t, env.logs.String(), "creation_validation", "logs should be written when stdout is not a terminal")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitRetryable, ExitCode(&instance.TransientError{Op: "x", Err: errors.New("y")}))
	assert.Equal(t, ExitNonRecoverable, ExitCode(&instance.ConfigError{Message: "x"}))
	assert.Equal(t, ExitNonRecoverable, ExitCode(errors.New("unclassified")))
	assert.Equal(t, ExitRetryable, ExitCode(errors.Join(nil, &instance.TransientError{Op: "save", Err: errors.New("y")})))
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := newLogger("warn", &buf)
	log.Info("hidden")
	log.Error(errors.New("boom"), "visible")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")

	buf.Reset()
	log = newLogger("debug", &buf)
	log.V(1).Info("detail")
	assert.Contains(t, buf.String(), "detail")
}

func TestLoadArgs(t *testing.T) {
	t.Parallel()

	args, err := loadArgs("")
	require.NoError(t, err)
	assert.Nil(t, args)

	path := filepath.Join(t.TempDir(), "args.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"instance_type":"t3.micro","monitoring_enabled":true}`), 0o600))
	args, err = loadArgs(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"instance_type": "t3.micro", "monitoring_enabled": true}, args)

	_, err = loadArgs(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, instance.IsNonRecoverable(err))
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) (map[string]any, error) {
	return nil, errors.New("store unavailable")
}

func (failingStore) Save(context.Context, string, map[string]any) error { return nil }

func (failingStore) Delete(context.Context, string) error { return nil }
