package compute

import (
	"errors"
	"fmt"
	"net/http"
)

// Provider error codes shared by the backends. The hcloud backend maps its
// own codes onto these so callers only match one vocabulary.
const (
	CodeInstanceNotFound    = "InvalidInstanceID.NotFound"
	CodeInstanceMalformed   = "InvalidInstanceID.Malformed"
	CodeImageNotFound       = "InvalidAMIID.NotFound"
	CodeImageMalformed      = "InvalidAMIID.Malformed"
	CodeSubnetNotFound      = "InvalidSubnetID.NotFound"
	CodeReservationNotFound = "InvalidReservationID.NotFound"
)

// APIError is a provider-reported error.
type APIError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the provider error code of err, or "" if err is not an APIError.
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// IsNotFound reports whether err says the addressed object does not exist
// or its identifier is malformed.
func IsNotFound(err error) bool {
	switch ErrorCode(err) {
	case CodeInstanceNotFound, CodeInstanceMalformed,
		CodeImageNotFound, CodeImageMalformed,
		CodeSubnetNotFound, CodeReservationNotFound:
		return true
	}
	return false
}

// IsServerError reports whether err is a provider-side fault.
func IsServerError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}
