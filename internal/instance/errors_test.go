package instance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/instancectl/internal/compute"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantTransient bool
		wantConfig    bool
	}{
		{"nil", nil, false, false},
		{"client error", &compute.APIError{Code: "InvalidParameterValue", StatusCode: http.StatusBadRequest}, false, true},
		{"server error", &compute.APIError{Code: "InternalError", StatusCode: http.StatusInternalServerError}, true, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true, false},
		{"plain error", errors.New("boom"), false, true},
		{"already classified", configErrorf("bad"), false, true},
		{"already transient", &TransientError{Op: "x", Err: errors.New("y")}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := classify(tt.err, "operation %d", 1)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantTransient, IsTransient(err))
			assert.Equal(t, tt.wantConfig, IsNonRecoverable(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestConfigError_Message(t *testing.T) {
	t.Parallel()
	apiErr := &compute.APIError{Code: compute.CodeInstanceNotFound, Message: "The instance ID 'i-1' does not exist"}
	err := classify(apiErr, "failed to stop instance %s", "i-1")
	assert.EqualError(t, err, "failed to stop instance i-1: InvalidInstanceID.NotFound: The instance ID 'i-1' does not exist")
	assert.Equal(t, compute.CodeInstanceNotFound, compute.ErrorCode(err))
}

func TestIsTransient_WrappedConfigError(t *testing.T) {
	t.Parallel()
	err := &TransientError{Op: "outer", Err: configErrorf("inner")}
	assert.False(t, IsTransient(err))
	assert.True(t, IsNonRecoverable(err))
}

func TestResult(t *testing.T) {
	t.Parallel()
	v, err := Ok(42).Unwrap()
	assert.Equal(t, 42, v)
	assert.NoError(t, err)

	sentinel := errors.New("nope")
	s, err := Fail[string](sentinel).Unwrap()
	assert.Empty(t, s)
	assert.ErrorIs(t, err, sentinel)
}
