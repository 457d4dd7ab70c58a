package wizard

import (
	"context"
	"fmt"
	"strings"

	"github.com/imamik/instancectl/internal/config"
)

const defaultStorePath = ".instancectl/state"

// WizardResult holds all the answers from the interactive wizard.
type WizardResult struct {
	Provider string
	Region   string

	StoreBackend  string
	StorePath     string
	StoreBucket   string
	StorePrefix   string
	StoreEndpoint string

	LogLevel    string
	MetricsFile string
}

// RunWizard runs the interactive configuration wizard. The context is used
// for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context) (*WizardResult, error) {
	result := &WizardResult{}

	if err := runProviderGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	if err := runStoreGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if err := runOutputGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	return result, nil
}

// BuildConfig converts wizard answers into a validated configuration.
func BuildConfig(result *WizardResult) (*config.Config, error) {
	if result.Provider == config.ProviderEC2 && result.Region == "" {
		return nil, errRegionRequired
	}

	cfg := &config.Config{
		Provider:    result.Provider,
		LogLevel:    result.LogLevel,
		MetricsFile: strings.TrimSpace(result.MetricsFile),
		Store: config.StoreConfig{
			Backend: result.StoreBackend,
		},
	}
	if cfg.Provider == config.ProviderEC2 {
		cfg.EC2.Region = result.Region
	}

	switch result.StoreBackend {
	case config.StoreLocal:
		cfg.Store.Path = strings.TrimSpace(result.StorePath)
		if cfg.Store.Path == "" {
			cfg.Store.Path = defaultStorePath
		}
	case config.StoreS3:
		cfg.Store.Bucket = result.StoreBucket
		cfg.Store.Prefix = strings.Trim(result.StorePrefix, "/")
		cfg.Store.Endpoint = result.StoreEndpoint
		cfg.Store.Region = cfg.EC2.Region
		// S3-compatible services other than AWS mostly need path-style addressing.
		cfg.Store.ForcePathStyle = result.StoreEndpoint != ""
	}

	// The token is supplied through the environment when the file is loaded.
	check := *cfg
	if check.Provider == config.ProviderHCloud {
		check.HCloud.Token = "from-environment"
	}
	if err := check.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
