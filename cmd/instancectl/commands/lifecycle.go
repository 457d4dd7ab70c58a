package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/imamik/instancectl/cmd/instancectl/handlers"
)

func operationCommand(use, short, long string, run func(context.Context, handlers.Options) error) *cobra.Command {
	var opts handlers.Options
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	bindOperationFlags(cmd, &opts)
	return cmd
}

// Create returns the create command.
func Create() *cobra.Command {
	return operationCommand("create", "Create the instance or adopt an external one",
		`Create launches the instance described by the node document, waits until
the provider reports it, records its identifier and addresses, and tags it.

With use_external_resource the instance named by resource_id is adopted
instead. When --retry-number is above zero and a previous attempt recorded
a reservation, the instance of that reservation is adopted rather than a
second one launched.

Example:
  instancectl create -n web.yaml --args overrides.yaml`,
		handlers.Create)
}

// Start returns the start command.
func Start() *cobra.Command {
	return operationCommand("start", "Start the instance and record its addresses",
		`Start powers on the recorded instance, waits until it runs and records its
addresses. With use_password the administrative password is retrieved and
recorded too.

Example:
  instancectl start -n web.yaml`,
		handlers.Start)
}

// Stop returns the stop command.
func Stop() *cobra.Command {
	return operationCommand("stop", "Stop the instance",
		`Stop powers off the recorded instance, waits until it is stopped and clears
its recorded addresses.

Example:
  instancectl stop -n web.yaml`,
		handlers.Stop)
}

// Delete returns the delete command.
func Delete() *cobra.Command {
	return operationCommand("delete", "Terminate the instance",
		`Delete terminates the recorded instance and clears everything recorded about
it. External instances are released without being terminated.

Example:
  instancectl delete -n web.yaml

WARNING: Termination is irreversible.`,
		handlers.Delete)
}

// Validate returns the validate command.
func Validate() *cobra.Command {
	return operationCommand("validate", "Check the node before creation",
		`Validate checks that the image exists and is available, and that
resource_id agrees with use_external_resource. Nothing is changed.

Example:
  instancectl validate -n web.yaml`,
		handlers.Validate)
}

// ModifyAttributes returns the modify-attributes command.
func ModifyAttributes() *cobra.Command {
	var opts handlers.Options
	cmd := &cobra.Command{
		Use:   "modify-attributes",
		Short: "Change attributes of the instance",
		Long: `Modify-attributes submits one attribute change per entry of the --args
file, e.g.

  instanceType: t3.large
  blockDeviceMapping: ["/dev/sda1=true"]

Attributes the provider does not support are skipped. Prints true when at
least one change was submitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ModifyAttributes(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	bindOperationFlags(cmd, &opts)
	return cmd
}

// Status returns the status command.
func Status() *cobra.Command {
	var opts handlers.Options
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what is recorded about the instance",
		Long: `Status prints the lifecycle state and the runtime properties recorded for
the node without contacting the provider. Output is styled on a terminal
and YAML otherwise. Passwords and client tokens are redacted.

Example:
  instancectl status -n web.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.NodePath, "node", "n", "", "Path to the node instance document (required)")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the controller configuration file")
	_ = cmd.MarkFlagRequired("node")
	return cmd
}

// Forget returns the command that drops the stored runtime properties.
func Forget() *cobra.Command {
	var (
		opts  handlers.Options
		force bool
	)
	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Remove the stored runtime properties of a node",
		Long: `Forget deletes what earlier invocations stored for the node, so the next
invocation starts from the runtime_properties of the node document.

A node whose instance is not terminated is refused. --force removes the
record anyway and leaves the instance running unmanaged.

Example:
  instancectl forget -n web.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Forget(cmd.Context(), opts, force, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.NodePath, "node", "n", "", "Path to the node instance document (required)")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the controller configuration file")
	cmd.Flags().BoolVar(&force, "force", false, "Forget a node that still records a live instance")
	_ = cmd.MarkFlagRequired("node")
	return cmd
}
