package tinybird

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tinybird-go/tinybird-go/internal/api"
	"github.com/tinybird-go/tinybird-go/region"
)

// Defaults applied by New.
const (
	DefaultAPIVersion        = api.DefaultAPIVersion
	DefaultMaxRetries        = api.DefaultMaxRetries
	DefaultRetryDelay        = api.DefaultRetryDelay
	DefaultBackoffMultiplier = api.DefaultBackoffMultiplier
	DefaultTimeout           = api.DefaultTimeout
)

type (
	// Transport sends a single HTTP attempt. Implementations return
	// network failures as errors and every HTTP status as a Response.
	Transport = api.Transport

	// TransportFunc adapts a function to the Transport interface.
	TransportFunc = api.TransportFunc

	// TransportRequest is one attempt handed to a Transport.
	TransportRequest = api.TransportRequest

	// Response is the raw outcome of one attempt.
	Response = api.Response
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	baseURL   string
	region    region.Region
	regionSet bool
	local     bool
	localPort int

	apiVersion        string
	maxRetries        int
	retryDelay        time.Duration
	backoffMultiplier float64

	transport  Transport
	httpClient *http.Client
	timeout    time.Duration
	http2      bool

	logger           *zap.Logger
	rateLimit        float64
	rateBurst        int
	registerer       prometheus.Registerer
	batchConcurrency int
	userAgent        string
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		localPort:         region.DefaultLocalPort,
		apiVersion:        DefaultAPIVersion,
		maxRetries:        DefaultMaxRetries,
		retryDelay:        DefaultRetryDelay,
		backoffMultiplier: DefaultBackoffMultiplier,
		timeout:           DefaultTimeout,
		batchConcurrency:  1,
	}
}

// resolveBaseURL picks the base URL from the explicit URL, the region or the
// local shortcut. At most one of them may be set.
func (c *clientConfig) resolveBaseURL() (string, error) {
	sources := 0
	for _, set := range []bool{c.baseURL != "", c.regionSet, c.local} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return "", validationError("base URL", "base URL, region and local are mutually exclusive")
	}

	switch {
	case c.baseURL != "":
		return c.baseURL, nil
	case c.local:
		if c.localPort < 1 || c.localPort > 65535 {
			return "", validationError("local port", "must be between 1 and 65535")
		}
		return region.LocalURL(c.localPort), nil
	case c.regionSet:
		if !c.region.IsValid() {
			return "", validationError("region", "unknown region "+string(c.region))
		}
		if c.region == region.Local {
			return region.LocalURL(c.localPort), nil
		}
		return c.region.BaseURL(), nil
	}
	return region.Default.BaseURL(), nil
}

func (c *clientConfig) validate() error {
	if c.maxRetries < 1 {
		return validationError("max retries", "must be at least 1")
	}
	if c.retryDelay < 0 {
		return validationError("retry delay", "must not be negative")
	}
	if c.backoffMultiplier < 1 {
		return validationError("backoff multiplier", "must be at least 1")
	}
	if c.apiVersion == "" {
		return validationError("api version", "must not be empty")
	}
	if c.rateLimit < 0 {
		return validationError("rate limit", "must not be negative")
	}
	return nil
}

// Option configures the client.
type Option func(*clientConfig)

// WithBaseURL sets the API base URL. It cannot be combined with WithRegion
// or WithLocal.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithRegion selects the API host of a Tinybird region.
func WithRegion(r region.Region) Option {
	return func(c *clientConfig) {
		c.region = r
		c.regionSet = true
	}
}

// WithLocal points the client at Tinybird Local on the default port 7181.
func WithLocal() Option {
	return func(c *clientConfig) {
		c.local = true
	}
}

// WithLocalPort points the client at Tinybird Local on the given port.
func WithLocalPort(port int) Option {
	return func(c *clientConfig) {
		c.local = true
		c.localPort = port
	}
}

// WithAPIVersion sets the path prefix of every request.
// Default: "v0"
func WithAPIVersion(version string) Option {
	return func(c *clientConfig) {
		c.apiVersion = version
	}
}

// WithRetries sets the total number of attempts per call. 1 disables retries.
// Default: 3
func WithRetries(attempts int) Option {
	return func(c *clientConfig) {
		c.maxRetries = attempts
	}
}

// WithRetryDelay sets the delay that the first retry multiplies.
// Default: 1 second
func WithRetryDelay(delay time.Duration) Option {
	return func(c *clientConfig) {
		c.retryDelay = delay
	}
}

// WithBackoffMultiplier sets the factor applied to the delay before each
// retry that has no Retry-After header.
// Default: 2.0
func WithBackoffMultiplier(multiplier float64) Option {
	return func(c *clientConfig) {
		c.backoffMultiplier = multiplier
	}
}

// WithTransport replaces the default resty transport. WithHTTPClient,
// WithTimeout and WithHTTP2 are ignored when a transport is set.
func WithTransport(t Transport) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}

// WithHTTPClient sets the HTTP client used by the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-attempt timeout of the default transport.
// Default: 30 seconds
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithHTTP2 makes the default transport negotiate HTTP/2.
func WithHTTP2() Option {
	return func(c *clientConfig) {
		c.http2 = true
	}
}

// WithLogger sets the logger. The token is never logged.
// Default: no-op logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithRateLimit limits attempts to rps per second with the given burst.
// The Events API accepts at most 100 requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *clientConfig) {
		c.rateLimit = rps
		c.rateBurst = burst
	}
}

// WithMetrics registers request, retry and latency collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.registerer = reg
	}
}

// WithBatchConcurrency sets how many requests of a batch run at once.
// Default: 1 (sequential)
func WithBatchConcurrency(n int) Option {
	return func(c *clientConfig) {
		c.batchConcurrency = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *clientConfig) {
		c.userAgent = userAgent
	}
}
