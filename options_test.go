package tinybird

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tinybird-go/tinybird-go/region"
)

func TestDefaultConstants(t *testing.T) {
	if DefaultAPIVersion != "v0" {
		t.Errorf("DefaultAPIVersion = %s, want v0", DefaultAPIVersion)
	}
	if DefaultMaxRetries != 3 {
		t.Errorf("DefaultMaxRetries = %d, want 3", DefaultMaxRetries)
	}
	if DefaultRetryDelay != time.Second {
		t.Errorf("DefaultRetryDelay = %v, want 1s", DefaultRetryDelay)
	}
	if DefaultBackoffMultiplier != 2.0 {
		t.Errorf("DefaultBackoffMultiplier = %v, want 2", DefaultBackoffMultiplier)
	}
	if DefaultTimeout != 30*time.Second {
		t.Errorf("DefaultTimeout = %v, want 30s", DefaultTimeout)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.localPort != 7181 {
		t.Errorf("localPort = %d, want 7181", cfg.localPort)
	}
	if cfg.batchConcurrency != 1 {
		t.Errorf("batchConcurrency = %d, want 1", cfg.batchConcurrency)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("validate() error = %v", err)
	}
	url, err := cfg.resolveBaseURL()
	if err != nil {
		t.Fatalf("resolveBaseURL() error = %v", err)
	}
	if url != "https://api.tinybird.co" {
		t.Errorf("resolveBaseURL() = %s, want https://api.tinybird.co", url)
	}
}

func TestWithBaseURL(t *testing.T) {
	cfg := &clientConfig{}
	WithBaseURL("https://custom.example.com")(cfg)
	if cfg.baseURL != "https://custom.example.com" {
		t.Errorf("baseURL = %s, want https://custom.example.com", cfg.baseURL)
	}
}

func TestWithRegion(t *testing.T) {
	cfg := defaultConfig()
	WithRegion(region.AWSEUCentral1)(cfg)
	if !cfg.regionSet || cfg.region != region.AWSEUCentral1 {
		t.Errorf("region = %s (set %v), want %s", cfg.region, cfg.regionSet, region.AWSEUCentral1)
	}
	url, err := cfg.resolveBaseURL()
	if err != nil {
		t.Fatalf("resolveBaseURL() error = %v", err)
	}
	if url != "https://api.eu-central-1.aws.tinybird.co" {
		t.Errorf("resolveBaseURL() = %s", url)
	}
}

func TestWithLocalPort(t *testing.T) {
	cfg := defaultConfig()
	WithLocalPort(9000)(cfg)
	if !cfg.local || cfg.localPort != 9000 {
		t.Errorf("local = %v, localPort = %d, want true, 9000", cfg.local, cfg.localPort)
	}
}

func TestWithHTTPClient(t *testing.T) {
	cfg := &clientConfig{}
	customClient := &http.Client{Timeout: 99 * time.Second}
	WithHTTPClient(customClient)(cfg)
	if cfg.httpClient != customClient {
		t.Error("httpClient not set correctly")
	}
}

func TestWithTimeout(t *testing.T) {
	cfg := &clientConfig{}
	WithTimeout(45 * time.Second)(cfg)
	if cfg.timeout != 45*time.Second {
		t.Errorf("timeout = %v, want 45s", cfg.timeout)
	}
}

func TestRetryOptions(t *testing.T) {
	cfg := &clientConfig{}
	WithRetries(5)(cfg)
	WithRetryDelay(250 * time.Millisecond)(cfg)
	WithBackoffMultiplier(1.5)(cfg)

	if cfg.maxRetries != 5 {
		t.Errorf("maxRetries = %d, want 5", cfg.maxRetries)
	}
	if cfg.retryDelay != 250*time.Millisecond {
		t.Errorf("retryDelay = %v, want 250ms", cfg.retryDelay)
	}
	if cfg.backoffMultiplier != 1.5 {
		t.Errorf("backoffMultiplier = %v, want 1.5", cfg.backoffMultiplier)
	}
}

func TestMiscOptions(t *testing.T) {
	cfg := &clientConfig{}
	logger := zap.NewNop()
	reg := prometheus.NewRegistry()

	WithLogger(logger)(cfg)
	WithMetrics(reg)(cfg)
	WithRateLimit(100, 10)(cfg)
	WithBatchConcurrency(4)(cfg)
	WithUserAgent("my-app/1.0")(cfg)
	WithHTTP2()(cfg)
	WithAPIVersion("v1")(cfg)

	if cfg.logger != logger {
		t.Error("logger not set correctly")
	}
	if cfg.registerer != reg {
		t.Error("registerer not set correctly")
	}
	if cfg.rateLimit != 100 || cfg.rateBurst != 10 {
		t.Errorf("rate = %v/%d, want 100/10", cfg.rateLimit, cfg.rateBurst)
	}
	if cfg.batchConcurrency != 4 {
		t.Errorf("batchConcurrency = %d, want 4", cfg.batchConcurrency)
	}
	if cfg.userAgent != "my-app/1.0" {
		t.Errorf("userAgent = %s, want my-app/1.0", cfg.userAgent)
	}
	if !cfg.http2 {
		t.Error("http2 not enabled")
	}
	if cfg.apiVersion != "v1" {
		t.Errorf("apiVersion = %s, want v1", cfg.apiVersion)
	}
}

func TestValidate_NegativeRateLimit(t *testing.T) {
	cfg := defaultConfig()
	WithRateLimit(-1, 1)(cfg)
	if err := cfg.validate(); err == nil {
		t.Error("validate() error = nil, want error for negative rate limit")
	}
}
