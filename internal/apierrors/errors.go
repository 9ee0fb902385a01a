// Package apierrors provides the error types shared by the Tinybird client
// and its HTTP executor.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrMissingToken is returned when no token is provided.
	ErrMissingToken = errors.New("token is required")

	// ErrUnauthorized is returned when the token is invalid or expired.
	ErrUnauthorized = errors.New("invalid or expired token")

	// ErrForbidden is returned when the token lacks the scope for an operation.
	ErrForbidden = errors.New("operation not allowed for token")

	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrRequestTimeout is returned when the API could not be reached.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrValidation is returned when input is rejected before it is sent.
	ErrValidation = errors.New("validation failed")
)

// Error codes reported by ErrorCode.
const (
	CodeAPI            = "api_error"
	CodeAuthentication = "authentication_error"
	CodeRateLimit      = "rate_limit_error"
	CodeRequestTimeout = "request_timeout"
	CodeValidation     = "validation_error"
)

// APIError represents a non-success HTTP response from the Tinybird API.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
	Header     http.Header
	Body       []byte
	// Response is the decoded body when it was a JSON object.
	Response map[string]any
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		if e.Message != "" {
			return fmt.Sprintf("API error %d: %s (request_id: %s)", e.StatusCode, e.Message, e.RequestID)
		}
		return fmt.Sprintf("API error %d (request_id: %s)", e.StatusCode, e.RequestID)
	}
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// ErrorCode returns a stable identifier for the error class.
func (e *APIError) ErrorCode() string { return CodeAPI }

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return target == ErrUnauthorized
	case http.StatusForbidden:
		return target == ErrForbidden
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusTooManyRequests:
		return target == ErrRateLimited
	}
	return false
}

// AuthenticationError is returned for 401 and 403 responses. When the
// failure looks like a region mismatch, Hint explains which constructor
// matches the token.
type AuthenticationError struct {
	APIError
	// TokenHost is the host embedded in the token, if it could be read.
	TokenHost string
	Hint      string
}

// ErrorCode returns a stable identifier for the error class.
func (e *AuthenticationError) ErrorCode() string { return CodeAuthentication }

// Unwrap exposes the embedded APIError to errors.As.
func (e *AuthenticationError) Unwrap() error { return &e.APIError }

// RateLimitError is returned for 429 responses.
type RateLimitError struct {
	APIError
	// RetryAfter is in seconds.
	RetryAfter *int
	Limit      *int
	Remaining  *int
	Reset      *int
}

// ErrorCode returns a stable identifier for the error class.
func (e *RateLimitError) ErrorCode() string { return CodeRateLimit }

// Unwrap exposes the embedded APIError to errors.As.
func (e *RateLimitError) Unwrap() error { return &e.APIError }

// RequestTimeoutError is returned when every attempt failed at the
// transport level.
type RequestTimeoutError struct {
	Message string
	Err     error
}

func (e *RequestTimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// ErrorCode returns a stable identifier for the error class.
func (e *RequestTimeoutError) ErrorCode() string { return CodeRequestTimeout }

// Unwrap returns the underlying error.
func (e *RequestTimeoutError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching.
func (e *RequestTimeoutError) Is(target error) bool {
	return target == ErrRequestTimeout
}

// ValidationError is returned when client-side input checks fail.
type ValidationError struct {
	Field   string
	Message string
	// Err optionally narrows the failure to a more specific sentinel.
	Err error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ErrorCode returns a stable identifier for the error class.
func (e *ValidationError) ErrorCode() string { return CodeValidation }

// Unwrap returns the specific sentinel, if any.
func (e *ValidationError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NetworkError represents a network-level failure.
type NetworkError struct {
	Err     error
	URL     string
	Attempt int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ResponseDecodeError is returned when a successful response carries a body
// that is not valid JSON. It is never retried.
type ResponseDecodeError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *ResponseDecodeError) Error() string {
	return fmt.Sprintf("failed to decode response (status %d): %v", e.StatusCode, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResponseDecodeError) Unwrap() error {
	return e.Err
}

// WithRequestID records the request id on the APIError inside err.
// Errors without an APIError are returned unchanged.
func WithRequestID(err error, id string) error {
	if err == nil || id == "" {
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RequestID == "" {
		apiErr.RequestID = id
	}
	return err
}
