package node

// ProviderContext holds deployment-wide resources created when the
// management environment was bootstrapped.
type ProviderContext struct {
	AgentsKeyPair            string
	AgentsSecurityGroup      string
	Subnet                   string
	VPC                      string
	AgentsInstanceParameters map[string]any
}

// BootstrapContext holds the default agent settings of the manager.
type BootstrapContext struct {
	AgentKeyPath string `mapstructure:"agent_key_path" yaml:"agent_key_path"`
	AgentUser    string `mapstructure:"user" yaml:"user"`
	ManagerIP    string `mapstructure:"manager_ip" yaml:"manager_ip"`
}

type providerResource struct {
	ID               string `mapstructure:"id"`
	ExternalResource bool   `mapstructure:"external_resource"`
}

type providerResources struct {
	AgentsKeyPair            providerResource `mapstructure:"agents_keypair"`
	AgentsSecurityGroup      providerResource `mapstructure:"agents_security_group"`
	Subnet                   providerResource `mapstructure:"subnet"`
	VPC                      providerResource `mapstructure:"vpc"`
	AgentsInstanceParameters map[string]any   `mapstructure:"agents_instance_parameters"`
}

// ParseProviderContext reads the "resources" section of a raw provider
// context. Missing entries stay empty.
func ParseProviderContext(raw map[string]any) (ProviderContext, error) {
	var wrapper struct {
		Resources providerResources `mapstructure:"resources"`
	}
	if err := decode(raw, &wrapper); err != nil {
		return ProviderContext{}, err
	}
	r := wrapper.Resources
	return ProviderContext{
		AgentsKeyPair:            r.AgentsKeyPair.ID,
		AgentsSecurityGroup:      r.AgentsSecurityGroup.ID,
		Subnet:                   r.Subnet.ID,
		VPC:                      r.VPC.ID,
		AgentsInstanceParameters: r.AgentsInstanceParameters,
	}, nil
}

// ParseBootstrapContext reads the "cloudify_agent" section of a raw
// bootstrap context.
func ParseBootstrapContext(raw map[string]any) (BootstrapContext, error) {
	var wrapper struct {
		Agent BootstrapContext `mapstructure:"cloudify_agent"`
	}
	if err := decode(raw, &wrapper); err != nil {
		return BootstrapContext{}, err
	}
	return wrapper.Agent, nil
}
