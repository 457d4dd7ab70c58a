package wizard

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/imamik/instancectl/internal/config"
)

var bucketNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// runProviderGroup prompts for the provider and, for EC2, the region.
func runProviderGroup(ctx context.Context, result *WizardResult) error {
	result.Provider = config.ProviderEC2

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Provider").
				Description("Where instances are managed").
				Options(toHuhOptions(ProviderOptions)...).
				Value(&result.Provider),
		).Title("Provider"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	if result.Provider != config.ProviderEC2 {
		return nil
	}
	result.Region = EC2Regions[0].Value
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Region").
				Options(toHuhOptions(EC2Regions)...).
				Value(&result.Region),
		).Title("AWS"),
	).RunWithContext(ctx)
}

// runStoreGroup prompts for the runtime property store.
func runStoreGroup(ctx context.Context, result *WizardResult) error {
	result.StoreBackend = config.StoreLocal

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Runtime property store").
				Description("Where recorded instance state is kept between invocations").
				Options(toHuhOptions(StoreOptions)...).
				Value(&result.StoreBackend),
		).Title("State"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	switch result.StoreBackend {
	case config.StoreLocal:
		result.StorePath = defaultStorePath
		return huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("State directory").
					Value(&result.StorePath).
					Validate(validateStorePath),
			).Title("Local store"),
		).RunWithContext(ctx)
	case config.StoreS3:
		return huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Bucket").
					Value(&result.StoreBucket).
					Validate(validateBucket),
				huh.NewInput().
					Title("Key prefix (Optional)").
					Placeholder("instancectl").
					Value(&result.StorePrefix),
				huh.NewInput().
					Title("Endpoint (Optional)").
					Description("For S3-compatible storage such as MinIO or Hetzner Object Storage").
					Value(&result.StoreEndpoint).
					Validate(validateEndpoint),
			).Title("S3 store"),
		).RunWithContext(ctx)
	}
	return nil
}

// runOutputGroup prompts for logging and metrics.
func runOutputGroup(ctx context.Context, result *WizardResult) error {
	result.LogLevel = "info"
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(toHuhOptions(LogLevelOptions)...).
				Value(&result.LogLevel),
			huh.NewInput().
				Title("Metrics textfile (Optional)").
				Description("Prometheus textfile written after every operation").
				Value(&result.MetricsFile).
				Validate(validateMetricsFile),
		).Title("Output"),
	).RunWithContext(ctx)
}

func validateStorePath(s string) error {
	if strings.TrimSpace(s) == "" {
		return errPathRequired
	}
	return nil
}

func validateBucket(s string) error {
	if s == "" {
		return errBucketRequired
	}
	if !bucketNameRegex.MatchString(s) {
		return errBucketInvalid
	}
	return nil
}

func validateEndpoint(s string) error {
	if s == "" || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") {
		return nil
	}
	return errEndpointInvalid
}

func validateMetricsFile(s string) error {
	if s != "" && strings.TrimSpace(s) == "" {
		return errMetricsPathBlank
	}
	return nil
}
