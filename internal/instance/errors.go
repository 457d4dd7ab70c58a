package instance

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/instancectl/internal/compute"
)

// ConfigError is a non-recoverable failure: retrying the operation with
// the same inputs fails the same way.
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransientError is a retry-eligible failure.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// IsNonRecoverable reports whether err must not be retried.
func IsNonRecoverable(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// IsTransient reports whether err is retry-eligible.
func IsTransient(err error) bool {
	if IsNonRecoverable(err) {
		return false
	}
	var tErr *TransientError
	return errors.As(err, &tErr)
}

// classify wraps a remote call error. Provider faults and expired
// deadlines are transient, everything else the provider rejects is a
// ConfigError that keeps the provider message.
func classify(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var cfgErr *ConfigError
	var tErr *TransientError
	if errors.As(err, &cfgErr) || errors.As(err, &tErr) {
		return err
	}
	op := fmt.Sprintf(format, args...)
	if compute.IsServerError(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return &TransientError{Op: op, Err: err}
	}
	return &ConfigError{Message: op, Err: err}
}

// Result carries either a value or an error.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok returns a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail returns a failed Result.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}
