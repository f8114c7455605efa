package upload

import "errors"

// Upload errors.
var (
	ErrUpload         = errors.New("upload failed")
	ErrInvalidConfig  = errors.New("invalid upload configuration: bucket and region are required")
	ErrLoadAWSConfig  = errors.New("failed to load AWS configuration")
	ErrAccessDenied   = errors.New("access denied")
	ErrBucketNotFound = errors.New("bucket not found")
	ErrUnavailable    = errors.New("storage service unavailable")
	ErrTimeout        = errors.New("upload timed out")
)
