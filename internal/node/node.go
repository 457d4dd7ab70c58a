package node

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ComputeType is the type every compute node derives from.
const ComputeType = "cloudify.nodes.Compute"

// Instance is one node instance of a deployment.
type Instance struct {
	DeploymentID     string
	ID               string
	NodeName         string
	TypeHierarchy    []string
	Properties       Properties
	Runtime          *RuntimeProperties
	Relationships    []Relationship
	ProviderContext  ProviderContext
	BootstrapContext BootstrapContext
	Operation        Operation
}

// Operation identifies the lifecycle call being executed.
type Operation struct {
	Name string
	// RetryNumber is 0 on the first attempt and increases on every retry
	// the orchestration engine makes.
	RetryNumber int
}

// IsCompute reports whether the node derives from the compute type.
func (n *Instance) IsCompute() bool {
	return slices.Contains(n.TypeHierarchy, ComputeType)
}

// Properties are the static node properties the controller recognizes.
type Properties struct {
	UseExternalResource bool              `mapstructure:"use_external_resource"`
	ResourceID          string            `mapstructure:"resource_id"`
	Name                string            `mapstructure:"name"`
	ImageID             string            `mapstructure:"image_id"`
	InstanceType        string            `mapstructure:"instance_type"`
	Parameters          map[string]any    `mapstructure:"parameters"`
	Tags                map[string]string `mapstructure:"tags"`
	AgentConfig         AgentConfig       `mapstructure:"agent_config"`
	UsePassword         bool              `mapstructure:"use_password"`
	PrivateKeyPath      string            `mapstructure:"private_key_path"`
}

// Agent install methods.
const (
	InstallNone       = "none"
	InstallRemote     = "remote"
	InstallInitScript = "init_script"
	InstallProvided   = "provided"
)

// AgentConfig configures how the management agent gets onto the instance.
type AgentConfig struct {
	InstallMethod string            `mapstructure:"install_method"`
	User          string            `mapstructure:"user"`
	Name          string            `mapstructure:"name"`
	Version       string            `mapstructure:"version"`
	PackageURL    string            `mapstructure:"package_url"`
	Env           map[string]string `mapstructure:"env"`
	OS            string            `mapstructure:"distro"`
}

// IsWindows reports whether the agent targets a Windows host.
func (a AgentConfig) IsWindows() bool {
	return strings.EqualFold(a.OS, "windows")
}

// DecodeProperties converts an untyped property bag into Properties.
// Scalars are converted weakly, so "true" and 1 both decode into a bool.
func DecodeProperties(raw map[string]any) (Properties, error) {
	var props Properties
	if err := decode(raw, &props); err != nil {
		return Properties{}, fmt.Errorf("invalid node properties: %w", err)
	}
	return props, nil
}

func decode(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
