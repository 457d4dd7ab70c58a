package wizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/instancectl/internal/config"
)

// fileConfig is the on-disk shape of a generated configuration. Credentials
// are left out on purpose.
type fileConfig struct {
	Provider    string    `yaml:"provider"`
	EC2         *fileEC2  `yaml:"ec2,omitempty"`
	Store       fileStore `yaml:"store"`
	LogLevel    string    `yaml:"log_level,omitempty"`
	MetricsFile string    `yaml:"metrics_file,omitempty"`
}

type fileEC2 struct {
	Region string `yaml:"region"`
}

type fileStore struct {
	Backend        string `yaml:"backend"`
	Path           string `yaml:"path,omitempty"`
	Bucket         string `yaml:"bucket,omitempty"`
	Prefix         string `yaml:"prefix,omitempty"`
	Region         string `yaml:"region,omitempty"`
	Endpoint       string `yaml:"endpoint,omitempty"`
	ForcePathStyle bool   `yaml:"force_path_style,omitempty"`
}

func toFileConfig(cfg *config.Config) fileConfig {
	out := fileConfig{
		Provider:    cfg.Provider,
		LogLevel:    cfg.LogLevel,
		MetricsFile: cfg.MetricsFile,
		Store: fileStore{
			Backend:        cfg.Store.Backend,
			Path:           cfg.Store.Path,
			Bucket:         cfg.Store.Bucket,
			Prefix:         cfg.Store.Prefix,
			Region:         cfg.Store.Region,
			Endpoint:       cfg.Store.Endpoint,
			ForcePathStyle: cfg.Store.ForcePathStyle,
		},
	}
	if cfg.Provider == config.ProviderEC2 {
		out.EC2 = &fileEC2{Region: cfg.EC2.Region}
	}
	return out
}

// WriteConfig writes cfg to outputPath as YAML with a descriptive header.
func WriteConfig(cfg *config.Config, outputPath string) error {
	data, err := yaml.Marshal(toFileConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(cfg))
	sb.WriteString("\n")
	sb.Write(data)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func generateHeader(cfg *config.Config) string {
	var sb strings.Builder
	sb.WriteString("# instancectl configuration\n")
	fmt.Fprintf(&sb, "# Generated by instancectl init on %s\n", time.Now().Format(time.DateOnly))
	sb.WriteString("#\n")
	sb.WriteString("# Credentials are read from the environment:\n")
	switch cfg.Provider {
	case config.ProviderHCloud:
		sb.WriteString("#   HCLOUD_TOKEN (or INSTANCECTL_HCLOUD_TOKEN)\n")
	default:
		sb.WriteString("#   the default AWS chain (AWS_PROFILE, AWS_ACCESS_KEY_ID, ...)\n")
	}
	if cfg.Store.Backend == config.StoreS3 {
		sb.WriteString("#   INSTANCECTL_STORE_ACCESS_KEY_ID / INSTANCECTL_STORE_SECRET_ACCESS_KEY for the store\n")
	}
	sb.WriteString("#\n")
	sb.WriteString("# Every key can be overridden with INSTANCECTL_<SECTION>_<KEY>.\n")
	return sb.String()
}
