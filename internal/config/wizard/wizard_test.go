package wizard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imamik/instancectl/internal/config"
)

func TestBuildConfig_EC2Local(t *testing.T) {
	cfg, err := BuildConfig(&WizardResult{
		Provider:     config.ProviderEC2,
		Region:       "eu-central-1",
		StoreBackend: config.StoreLocal,
		StorePath:    "  /var/lib/instancectl ",
		LogLevel:     "debug",
	})
	if err != nil {
		t.Fatalf("BuildConfig failed: %v", err)
	}
	if cfg.EC2.Region != "eu-central-1" {
		t.Errorf("EC2.Region = %q", cfg.EC2.Region)
	}
	if cfg.Store.Path != "/var/lib/instancectl" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestBuildConfig_DefaultStorePath(t *testing.T) {
	cfg, err := BuildConfig(&WizardResult{
		Provider:     config.ProviderEC2,
		Region:       "us-east-1",
		StoreBackend: config.StoreLocal,
	})
	if err != nil {
		t.Fatalf("BuildConfig failed: %v", err)
	}
	if cfg.Store.Path != defaultStorePath {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, defaultStorePath)
	}
}

func TestBuildConfig_HCloudS3(t *testing.T) {
	cfg, err := BuildConfig(&WizardResult{
		Provider:      config.ProviderHCloud,
		StoreBackend:  config.StoreS3,
		StoreBucket:   "state",
		StorePrefix:   "/instancectl/",
		StoreEndpoint: "https://fsn1.your-objectstorage.com",
	})
	if err != nil {
		t.Fatalf("BuildConfig failed: %v", err)
	}
	if cfg.HCloud.Token != "" {
		t.Error("token must not end up in the generated config")
	}
	if cfg.Store.Prefix != "instancectl" {
		t.Errorf("Store.Prefix = %q", cfg.Store.Prefix)
	}
	if !cfg.Store.ForcePathStyle {
		t.Error("expected path-style addressing for a custom endpoint")
	}
}

func TestBuildConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		result WizardResult
		want   string
	}{
		{"missing region", WizardResult{Provider: config.ProviderEC2, StoreBackend: config.StoreLocal}, "region is required"},
		{"missing bucket", WizardResult{Provider: config.ProviderEC2, Region: "us-east-1", StoreBackend: config.StoreS3}, "store.bucket is required"},
		{"bad log level", WizardResult{Provider: config.ProviderEC2, Region: "us-east-1", StoreBackend: config.StoreMemory, LogLevel: "loud"}, "LogLevel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildConfig(&tt.result)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidators(t *testing.T) {
	if validateBucket("") != errBucketRequired {
		t.Error("empty bucket should be required")
	}
	if validateBucket("Bad_Bucket") != errBucketInvalid {
		t.Error("uppercase bucket should be invalid")
	}
	if err := validateBucket("my-state.bucket"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if validateEndpoint("minio:9000") != errEndpointInvalid {
		t.Error("endpoint without scheme should be invalid")
	}
	if err := validateEndpoint(""); err != nil {
		t.Errorf("empty endpoint is optional: %v", err)
	}
	if validateStorePath("   ") != errPathRequired {
		t.Error("blank path should be rejected")
	}
	if validateMetricsFile("  ") != errMetricsPathBlank {
		t.Error("whitespace metrics file should be rejected")
	}
}

func TestToHuhOptions(t *testing.T) {
	opts := toHuhOptions(StoreOptions)
	if len(opts) != len(StoreOptions) {
		t.Fatalf("expected %d options, got %d", len(StoreOptions), len(opts))
	}
	if opts[0].Value != config.StoreLocal {
		t.Errorf("first option value = %q", opts[0].Value)
	}
	if !strings.Contains(opts[0].Key, "JSON documents") {
		t.Errorf("expected description in label, got %q", opts[0].Key)
	}
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	cfg, err := BuildConfig(&WizardResult{
		Provider:     config.ProviderEC2,
		Region:       "eu-west-1",
		StoreBackend: config.StoreS3,
		StoreBucket:  "instancectl-state",
		LogLevel:     "warn",
	})
	if err != nil {
		t.Fatalf("BuildConfig failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "instancectl.yaml")
	if err := WriteConfig(cfg, path); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# instancectl configuration") {
		t.Errorf("missing header:\n%s", content)
	}
	if !strings.Contains(content, "INSTANCECTL_STORE_ACCESS_KEY_ID") {
		t.Errorf("expected store credential hint:\n%s", content)
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if loaded.EC2.Region != "eu-west-1" || loaded.Store.Bucket != "instancectl-state" || loaded.LogLevel != "warn" {
		t.Errorf("unexpected loaded config %+v", loaded)
	}
}

func TestGenerateHeader_HCloud(t *testing.T) {
	header := generateHeader(&config.Config{Provider: config.ProviderHCloud, Store: config.StoreConfig{Backend: config.StoreLocal}})
	if !strings.Contains(header, "HCLOUD_TOKEN") {
		t.Errorf("expected token hint:\n%s", header)
	}
	if strings.Contains(header, "INSTANCECTL_STORE_ACCESS_KEY_ID") {
		t.Errorf("local store needs no store credentials:\n%s", header)
	}
}
