package tinybird

import (
	"errors"
	"fmt"

	"github.com/tinybird-go/tinybird-go/internal/apierrors"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrMissingToken is returned when no token is provided.
	ErrMissingToken = apierrors.ErrMissingToken

	// ErrUnauthorized is returned for 401 responses.
	ErrUnauthorized = apierrors.ErrUnauthorized

	// ErrForbidden is returned for 403 responses.
	ErrForbidden = apierrors.ErrForbidden

	// ErrNotFound is returned for 404 responses.
	ErrNotFound = apierrors.ErrNotFound

	// ErrRateLimited is returned for 429 responses once retries are exhausted.
	ErrRateLimited = apierrors.ErrRateLimited

	// ErrRequestTimeout is returned when the API could not be reached.
	ErrRequestTimeout = apierrors.ErrRequestTimeout

	// ErrValidation is returned when input is rejected before it is sent.
	ErrValidation = apierrors.ErrValidation

	// ErrJobFailed is returned by Jobs.Wait when a job ends in error.
	ErrJobFailed = errors.New("job failed")
)

// Error is implemented by all typed SDK errors. ErrorCode returns a stable
// machine-readable code such as "rate_limit_error".
type Error interface {
	error
	ErrorCode() string
}

type (
	// APIError represents a non-success HTTP response from the Tinybird API.
	APIError = apierrors.APIError

	// AuthenticationError is returned for 401 and 403 responses. When the
	// token was issued for another region the message carries a hint naming
	// the right one.
	AuthenticationError = apierrors.AuthenticationError

	// RateLimitError is returned for 429 responses.
	RateLimitError = apierrors.RateLimitError

	// RequestTimeoutError is returned when every attempt failed at the
	// transport level.
	RequestTimeoutError = apierrors.RequestTimeoutError

	// ValidationError is returned when input is rejected locally.
	ValidationError = apierrors.ValidationError

	// NetworkError wraps a transport failure of a single attempt.
	NetworkError = apierrors.NetworkError

	// ResponseDecodeError is returned when a successful response body is not
	// valid JSON or does not match the expected resource shape.
	ResponseDecodeError = apierrors.ResponseDecodeError
)

// CodeJobFailed is the ErrorCode of JobFailedError.
const CodeJobFailed = "job_failed"

// JobFailedError is returned by Jobs.Wait when the job ends with status
// error or cancelled.
type JobFailedError struct {
	Job *Job
}

func (e *JobFailedError) Error() string {
	if e.Job == nil {
		return "job failed"
	}
	return fmt.Sprintf("job %s (%s) ended with status %s", e.Job.ID, e.Job.Kind, e.Job.Status)
}

// ErrorCode implements the Error interface.
func (e *JobFailedError) ErrorCode() string { return CodeJobFailed }

// Is implements errors.Is for sentinel error matching.
func (e *JobFailedError) Is(target error) bool {
	return target == ErrJobFailed
}

func validationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func requireName(field, value string) error {
	if value == "" {
		return validationError(field, "must not be empty")
	}
	return nil
}
