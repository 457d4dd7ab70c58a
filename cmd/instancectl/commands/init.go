package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/instancectl/cmd/instancectl/handlers"
)

// Init returns the init command.
func Init() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		Long: `Init asks for the provider, region and runtime property store and writes a
configuration file. Credentials are not written; the file header names the
environment variables that supply them.

Example:
  instancectl init -o instancectl.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), output, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "instancectl.yaml", "Path of the configuration file to write")
	return cmd
}
