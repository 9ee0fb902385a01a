// Package api executes requests against the Tinybird HTTP API. It builds
// versioned paths and bodies, attaches the bearer token, and retries
// transient failures with backoff.
//
// # Client Creation
//
// [NewClient] takes a [Config]. Only the token is required; the base URL is
// required unless a custom [Transport] is supplied.
//
// # Retry Behavior
//
// A logical call makes at most [RetryConfig.MaxAttempts] attempts. These
// statuses are retried while attempts remain:
//
//   - 429 Too Many Requests
//   - 500 Internal Server Error
//   - 502 Bad Gateway
//   - 503 Service Unavailable
//   - 504 Gateway Timeout
//
// Before each retry the delay is advanced and then waited. A positive
// Retry-After header on the failed response sets the delay to that many
// seconds; otherwise the previous delay is multiplied by
// [RetryConfig.Multiplier]. Transport failures always use the multiplier.
// With the defaults the waits are 2s and 4s.
//
// Waits are interrupted by context cancellation, which is returned wrapped
// so that errors.Is(err, context.Canceled) holds.
//
// # Error Handling
//
// Non-success responses are turned into typed errors by
// [apierrors.Classify]. A successful response with a malformed JSON body is
// reported as [apierrors.ResponseDecodeError] and never retried.
//
// # Thread Safety
//
// The [Client] type is safe for concurrent use. Multiple goroutines may call
// methods on a single Client simultaneously.
package api
