// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/instancectl/cmd/instancectl/handlers"
)

// Root returns the root command for the instancectl CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "instancectl",
		Short:         "Manage the lifecycle of cloud compute instances",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(Init())
	cmd.AddCommand(Create())
	cmd.AddCommand(Start())
	cmd.AddCommand(Stop())
	cmd.AddCommand(Delete())
	cmd.AddCommand(ModifyAttributes())
	cmd.AddCommand(Validate())
	cmd.AddCommand(Status())
	cmd.AddCommand(Forget())
	cmd.AddCommand(Version())

	return cmd
}

// bindOperationFlags registers the flags shared by every lifecycle command.
func bindOperationFlags(cmd *cobra.Command, opts *handlers.Options) {
	cmd.Flags().StringVarP(&opts.NodePath, "node", "n", "", "Path to the node instance document (required)")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the controller configuration file")
	cmd.Flags().StringVar(&opts.ArgsPath, "args", "", "Path to a YAML or JSON file with operation arguments")
	cmd.Flags().IntVar(&opts.RetryNumber, "retry-number", 0, "Attempt counter of the calling orchestrator, 0 on the first attempt")
	cmd.Flags().BoolVar(&opts.Interactive, "tui", false, "Show a live progress view when attached to a terminal")
	_ = cmd.MarkFlagRequired("node")
}
