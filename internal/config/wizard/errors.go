package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errRegionRequired   = errors.New("region is required")
	errPathRequired     = errors.New("state directory is required")
	errBucketRequired   = errors.New("bucket is required")
	errBucketInvalid    = errors.New("bucket names are 3-63 lowercase letters, digits, dots or hyphens")
	errEndpointInvalid  = errors.New("endpoint must start with http:// or https://")
	errMetricsPathBlank = errors.New("metrics file must not be only whitespace")
)
