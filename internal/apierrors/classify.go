package apierrors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tinybird-go/tinybird-go/region"
	"github.com/tinybird-go/tinybird-go/tokeninfo"
)

// Rate limit response headers.
const (
	HeaderRetryAfter         = "Retry-After"
	HeaderRateLimitLimit     = "X-Ratelimit-Limit"
	HeaderRateLimitRemaining = "X-Ratelimit-Remaining"
	HeaderRateLimitReset     = "X-Ratelimit-Reset"
)

// Messages that indicate the token belongs to another region.
var regionMismatchMarkers = []string{
	"workspace not found",
	"token host",
	"signature verification failed",
}

// IsRetryableStatus reports whether a response with this status may succeed
// when sent again.
func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Classify turns a non-success response into a typed error. token is only
// read to explain authentication failures.
func Classify(statusCode int, header http.Header, body []byte, token string) error {
	base := APIError{
		StatusCode: statusCode,
		Header:     header,
		Body:       body,
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err == nil && decoded != nil {
		base.Response = decoded
		if msg, ok := decoded["error"].(string); ok {
			base.Message = msg
		}
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return classifyAuth(base, token)
	case http.StatusTooManyRequests:
		if base.Message == "" {
			base.Message = "Rate limit exceeded"
		}
		return &RateLimitError{
			APIError:   base,
			RetryAfter: headerInt(header, HeaderRetryAfter),
			Limit:      headerInt(header, HeaderRateLimitLimit),
			Remaining:  headerInt(header, HeaderRateLimitRemaining),
			Reset:      headerInt(header, HeaderRateLimitReset),
		}
	}

	if base.Message == "" {
		base.Message = fmt.Sprintf("request to Tinybird API failed with status %d", statusCode)
	}
	return &base
}

func classifyAuth(base APIError, token string) *AuthenticationError {
	if base.Message == "" {
		base.Message = fmt.Sprintf("request to Tinybird API failed with status %d", base.StatusCode)
	}

	authErr := &AuthenticationError{APIError: base}
	host, ok := tokeninfo.ExtractHost(token)
	if !ok {
		return authErr
	}
	authErr.TokenHost = host

	if !looksLikeRegionMismatch(base.Message) {
		return authErr
	}
	authErr.Hint = regionHint(host)
	authErr.Message = base.Message + "\n\n" + authErr.Hint
	return authErr
}

func looksLikeRegionMismatch(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range regionMismatchMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func regionHint(host string) string {
	r, ok := region.FromHost(host)
	switch {
	case !ok:
		return fmt.Sprintf("Your token is for host '%s'. Check that you're using the correct region.", host)
	case r == region.Local:
		return "Your token is for Tinybird Local. Use tinybird.NewLocal(token)."
	default:
		return fmt.Sprintf("Your token is for region '%s'. Use tinybird.NewForRegion(token, region.%s).", r, r.ConstName())
	}
}

// headerInt reads an integer header, matching the name case-insensitively
// so hand-built header maps work too.
func headerInt(header http.Header, name string) *int {
	for key, values := range header {
		if !strings.EqualFold(key, name) || len(values) == 0 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(values[0]))
		if err != nil {
			return nil
		}
		return &n
	}
	return nil
}

// RetryAfter returns the positive retry-after value in seconds carried by
// header, if any.
func RetryAfter(header http.Header) (int, bool) {
	n := headerInt(header, HeaderRetryAfter)
	if n == nil || *n <= 0 {
		return 0, false
	}
	return *n, true
}
