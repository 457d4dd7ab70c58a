package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}
	runWizard   = wizard.RunWizard
	writeConfig = wizard.WriteConfig
)

// Init runs the configuration wizard and writes the result to outputPath.
func Init(ctx context.Context, outputPath string, out io.Writer) error {
	if fileExists(outputPath) {
		fmt.Fprintf(out, "Warning: %s already exists and will be overwritten.\n\n", outputPath)
	}

	result, err := runWizard(ctx)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cfg, err := wizard.BuildConfig(result)
	if err != nil {
		return err
	}
	if err := writeConfig(cfg, outputPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(out, outputPath, cfg)
	return nil
}

func printInitSuccess(out io.Writer, outputPath string, cfg *config.Config) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration saved!")
	fmt.Fprintf(out, "  File:     %s\n", outputPath)
	fmt.Fprintf(out, "  Provider: %s\n", cfg.Provider)
	fmt.Fprintf(out, "  Store:    %s\n", cfg.Store.Backend)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next Steps")
	fmt.Fprintln(out, "----------")
	if cfg.Provider == config.ProviderHCloud {
		fmt.Fprintln(out, "  1. export HCLOUD_TOKEN=<your-token>")
	} else {
		fmt.Fprintln(out, "  1. Make AWS credentials available (AWS_PROFILE or access keys)")
	}
	fmt.Fprintf(out, "  2. instancectl validate -c %s -n <node.yaml>\n", outputPath)
	fmt.Fprintln(out)
}
