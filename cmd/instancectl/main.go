// Package main is the entry point for the instancectl CLI.
//
// instancectl drives the lifecycle of one compute instance node: create,
// start, stop, delete, attribute modification and creation validation,
// against EC2 or Hetzner Cloud. Runtime properties are persisted between
// invocations so an orchestrator can call one operation per process.
//
// Exit codes: 0 on success, 1 on a non-recoverable failure, 2 on a
// failure that may succeed when retried.
//
// For detailed usage information, run:
//
//	instancectl --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/instancectl/cmd/instancectl/commands"
	"github.com/imamik/instancectl/cmd/instancectl/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	commands.SetVersionInfo(version, commit, date)
	err := commands.Root().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(handlers.ExitCode(err))
}
