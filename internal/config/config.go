package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Supported remote compute providers.
const (
	ProviderEC2    = "ec2"
	ProviderHCloud = "hcloud"
)

// Supported runtime property store backends.
const (
	StoreMemory = "memory"
	StoreLocal  = "local"
	StoreS3     = "s3"
)

// Config is the controller configuration.
type Config struct {
	Provider    string       `mapstructure:"provider" validate:"required,oneof=ec2 hcloud"`
	EC2         EC2Config    `mapstructure:"ec2"`
	HCloud      HCloudConfig `mapstructure:"hcloud"`
	Store       StoreConfig  `mapstructure:"store"`
	MetricsFile string       `mapstructure:"metrics_file"`
	LogLevel    string       `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// EC2Config holds AWS connection settings.
type EC2Config struct {
	Region          string `mapstructure:"region"`
	Profile         string `mapstructure:"profile"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
}

// HCloudConfig holds Hetzner Cloud connection settings.
type HCloudConfig struct {
	Token    string `mapstructure:"token"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

// StoreConfig selects and configures the runtime property store.
type StoreConfig struct {
	Backend         string `mapstructure:"backend" validate:"required,oneof=memory local s3"`
	Path            string `mapstructure:"path"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the provider-specific requirements
// that struct tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.Provider {
	case ProviderEC2:
		if c.EC2.Region == "" {
			return fmt.Errorf("invalid configuration: ec2.region is required for provider %q", c.Provider)
		}
		if (c.EC2.AccessKeyID == "") != (c.EC2.SecretAccessKey == "") {
			return fmt.Errorf("invalid configuration: ec2.access_key_id and ec2.secret_access_key must be set together")
		}
	case ProviderHCloud:
		if c.HCloud.Token == "" {
			return fmt.Errorf("invalid configuration: hcloud.token is required for provider %q", c.Provider)
		}
	}

	if c.Store.Backend == StoreS3 && c.Store.Bucket == "" {
		return fmt.Errorf("invalid configuration: store.bucket is required for the s3 store")
	}

	return nil
}
