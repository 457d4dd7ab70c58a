package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout and polling values.
// These values can be customized via environment variables.
type Timeouts struct {
	StateChange       time.Duration // Upper bound for waiting on an instance state transition
	RemoteCall        time.Duration // Timeout for a single remote API call
	RetryMaxAttempts  int           // Maximum number of state polls
	RetryInitialDelay time.Duration // Initial delay between state polls
	RetryMaxDelay     time.Duration // Cap on the delay between state polls
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - INSTANCECTL_TIMEOUT_STATE (default: 5m)
//   - INSTANCECTL_TIMEOUT_REMOTE_CALL (default: 60s)
//   - INSTANCECTL_RETRY_MAX_ATTEMPTS (default: 30)
//   - INSTANCECTL_RETRY_INITIAL_DELAY (default: 2s)
//   - INSTANCECTL_RETRY_MAX_DELAY (default: 15s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		StateChange:       parseDuration("INSTANCECTL_TIMEOUT_STATE", 5*time.Minute),
		RemoteCall:        parseDuration("INSTANCECTL_TIMEOUT_REMOTE_CALL", 60*time.Second),
		RetryMaxAttempts:  parseInt("INSTANCECTL_RETRY_MAX_ATTEMPTS", 30),
		RetryInitialDelay: parseDuration("INSTANCECTL_RETRY_INITIAL_DELAY", 2*time.Second),
		RetryMaxDelay:     parseDuration("INSTANCECTL_RETRY_MAX_DELAY", 15*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
