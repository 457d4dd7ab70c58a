package handlers

import "github.com/imamik/instancectl/internal/instance"

// Process exit codes.
const (
	ExitOK             = 0
	ExitNonRecoverable = 1
	ExitRetryable      = 2
)

// ExitCode maps an operation error to the process exit code. Failures that
// are neither classified as transient nor as configuration errors are
// treated as non-recoverable.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case instance.IsTransient(err):
		return ExitRetryable
	default:
		return ExitNonRecoverable
	}
}
