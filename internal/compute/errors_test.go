package compute

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "InvalidInstanceID.NotFound: gone", (&APIError{Code: CodeInstanceNotFound, Message: "gone"}).Error())
	assert.Equal(t, "Unavailable", (&APIError{Code: "Unavailable"}).Error())
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantNotFnd bool
		wantServer bool
	}{
		{"nil", nil, "", false, false},
		{"plain error", errors.New("boom"), "", false, false},
		{"instance not found", &APIError{Code: CodeInstanceNotFound, StatusCode: http.StatusBadRequest}, CodeInstanceNotFound, true, false},
		{"malformed id", &APIError{Code: CodeInstanceMalformed, StatusCode: http.StatusBadRequest}, CodeInstanceMalformed, true, false},
		{"image not found", &APIError{Code: CodeImageNotFound}, CodeImageNotFound, true, false},
		{"wrapped subnet not found", fmt.Errorf("lookup: %w", &APIError{Code: CodeSubnetNotFound}), CodeSubnetNotFound, true, false},
		{"server fault", &APIError{Code: "InternalError", StatusCode: http.StatusServiceUnavailable}, "InternalError", false, true},
		{"client fault", &APIError{Code: "UnauthorizedOperation", StatusCode: http.StatusForbidden}, "UnauthorizedOperation", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantCode, ErrorCode(tt.err))
			assert.Equal(t, tt.wantNotFnd, IsNotFound(tt.err))
			assert.Equal(t, tt.wantServer, IsServerError(tt.err))
		})
	}
}
