package ec2

import (
	"errors"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"

	"github.com/imamik/instancectl/internal/compute"
)

// translateError converts SDK errors into *compute.APIError. Errors
// without an EC2 error code, such as context cancellation, pass through.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	out := &compute.APIError{
		Code:    apiErr.ErrorCode(),
		Message: apiErr.ErrorMessage(),
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		out.StatusCode = respErr.HTTPStatusCode()
	}
	if out.StatusCode == 0 {
		out.StatusCode = http.StatusBadRequest
		if apiErr.ErrorFault() == smithy.FaultServer {
			out.StatusCode = http.StatusInternalServerError
		}
	}
	return out
}
