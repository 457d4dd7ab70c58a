package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "INSTANCECTL"

// defaults lists every known key so viper resolves env overrides for nested
// keys during Unmarshal.
var defaults = map[string]any{
	"provider":                ProviderEC2,
	"ec2.region":              "",
	"ec2.profile":             "",
	"ec2.access_key_id":       "",
	"ec2.secret_access_key":   "",
	"ec2.session_token":       "",
	"ec2.endpoint":            "",
	"hcloud.token":            "",
	"hcloud.endpoint":         "",
	"store.backend":           StoreLocal,
	"store.path":              ".instancectl/state",
	"store.bucket":            "",
	"store.prefix":            "",
	"store.region":            "",
	"store.endpoint":          "",
	"store.access_key_id":     "",
	"store.secret_access_key": "",
	"store.force_path_style":  false,
	"metrics_file":            "",
	"log_level":               "info",
}

// Load reads the configuration from path (optional) and the environment.
// Environment variables take precedence over the file, e.g.
// INSTANCECTL_EC2_REGION overrides ec2.region. HCLOUD_TOKEN and AWS_REGION
// are honored as fallbacks for the provider credentials.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("hcloud.token", EnvPrefix+"_HCLOUD_TOKEN", "HCLOUD_TOKEN")
	_ = v.BindEnv("ec2.region", EnvPrefix+"_EC2_REGION", "AWS_REGION")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Store.Region == "" {
		cfg.Store.Region = cfg.EC2.Region
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
