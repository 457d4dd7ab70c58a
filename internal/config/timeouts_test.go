package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadTimeouts_Defaults(t *testing.T) {
	for _, env := range []string{
		"INSTANCECTL_TIMEOUT_STATE",
		"INSTANCECTL_TIMEOUT_REMOTE_CALL",
		"INSTANCECTL_RETRY_MAX_ATTEMPTS",
		"INSTANCECTL_RETRY_INITIAL_DELAY",
		"INSTANCECTL_RETRY_MAX_DELAY",
	} {
		t.Setenv(env, "")
	}

	timeouts := LoadTimeouts()

	assert.Equal(t, 5*time.Minute, timeouts.StateChange)
	assert.Equal(t, 60*time.Second, timeouts.RemoteCall)
	assert.Equal(t, 30, timeouts.RetryMaxAttempts)
	assert.Equal(t, 2*time.Second, timeouts.RetryInitialDelay)
	assert.Equal(t, 15*time.Second, timeouts.RetryMaxDelay)
}

func TestLoadTimeouts_FromEnv(t *testing.T) {
	t.Setenv("INSTANCECTL_TIMEOUT_STATE", "90s")
	t.Setenv("INSTANCECTL_RETRY_MAX_ATTEMPTS", "7")
	t.Setenv("INSTANCECTL_RETRY_INITIAL_DELAY", "250ms")

	timeouts := LoadTimeouts()

	assert.Equal(t, 90*time.Second, timeouts.StateChange)
	assert.Equal(t, 7, timeouts.RetryMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, timeouts.RetryInitialDelay)
}

func TestLoadTimeouts_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("INSTANCECTL_TIMEOUT_STATE", "soon")
	t.Setenv("INSTANCECTL_RETRY_MAX_ATTEMPTS", "many")

	timeouts := LoadTimeouts()

	assert.Equal(t, 5*time.Minute, timeouts.StateChange)
	assert.Equal(t, 30, timeouts.RetryMaxAttempts)
}
