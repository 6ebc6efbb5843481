package domain

import "errors"

// Domain errors
var (
	ErrRequestNotFound  = errors.New("request not found")
	ErrInvalidRecord    = errors.New("invalid request record")
	ErrInvalidCriteria  = errors.New("invalid filter criteria")
	ErrUnsupportedInput = errors.New("unsupported source format")
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Error codes for API responses
const (
	ErrCodeRequestNotFound  = "REQUEST_NOT_FOUND"
	ErrCodeInvalidRecord    = "INVALID_RECORD"
	ErrCodeInvalidCriteria  = "INVALID_CRITERIA"
	ErrCodeUnsupportedInput = "UNSUPPORTED_FORMAT"

	// API-only error codes, there are no sentinel errors for them
	ErrCodeStreamingNotSupported = "STREAMING_NOT_SUPPORTED"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
)

// ErrorCode returns the API error code for a domain error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRequestNotFound):
		return ErrCodeRequestNotFound
	case errors.Is(err, ErrInvalidRecord):
		return ErrCodeInvalidRecord
	case errors.Is(err, ErrInvalidCriteria):
		return ErrCodeInvalidCriteria
	case errors.Is(err, ErrUnsupportedInput):
		return ErrCodeUnsupportedInput
	default:
		return "INTERNAL_ERROR"
	}
}
