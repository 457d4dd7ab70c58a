package hcloud

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/instancectl/internal/compute"
)

// isResourceLocked checks if an error indicates a resource is locked.
// Locked resources typically occur while another action is running on
// the server. These errors are retryable.
func isResourceLocked(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeLocked,
		hcloud.ErrorCodeConflict,
		hcloud.ErrorCodeResourceLocked,
		hcloud.ErrorCodeResourceUnavailable,
	)
}

// isInvalidParameter checks if an error indicates invalid parameters.
// These errors are fatal and should not be retried.
func isInvalidParameter(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeNotFound,
		hcloud.ErrorCodeInvalidInput,
		hcloud.ErrorCodeInvalidServerType,
	)
}

// isServerSide reports errors the API attributes to itself.
func isServerSide(err error) bool {
	return isResourceLocked(err) || isHCloudErrorCode(err,
		hcloud.ErrorCodeServiceError,
		hcloud.ErrorCodeTimeout,
		hcloud.ErrorCodeMaintenance,
		hcloud.ErrorCodeRateLimitExceeded,
	)
}

// isHCloudErrorCode checks if the error is an hcloud API error with one of the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeNotFound)
}

// translateError converts hcloud errors into *compute.APIError so callers
// match one error vocabulary. notFoundCode names what was addressed.
func translateError(err error, notFoundCode string) error {
	if err == nil {
		return nil
	}

	var actionErr hcloud.ActionError
	if errors.As(err, &actionErr) {
		return &compute.APIError{
			Code:       actionErr.Code,
			Message:    actionErr.Message,
			StatusCode: http.StatusInternalServerError,
		}
	}

	var hcloudErr hcloud.Error
	if !errors.As(err, &hcloudErr) {
		return err
	}

	out := &compute.APIError{
		Code:       string(hcloudErr.Code),
		Message:    hcloudErr.Message,
		StatusCode: http.StatusBadRequest,
	}
	switch {
	case IsNotFound(err):
		out.Code = notFoundCode
		out.StatusCode = http.StatusNotFound
	case isHCloudErrorCode(err, hcloud.ErrorCodeInvalidInput):
		out.Code = "InvalidParameterValue"
	case isServerSide(err):
		out.StatusCode = http.StatusServiceUnavailable
	}
	return out
}

func notFound(code, format string, args ...any) error {
	return &compute.APIError{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusNotFound,
	}
}
