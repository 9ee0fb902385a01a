package tinybird

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/tinybird-go/tinybird-go/region"
	"github.com/tinybird-go/tinybird-go/tokeninfo"
)

// EnvPrefix is the prefix of the environment variables read by
// LoadEnvConfig.
const EnvPrefix = "TB"

// EnvConfig is the client configuration read from TB_* environment
// variables.
type EnvConfig struct {
	Token string `envconfig:"TOKEN"`
	// Host is a full base URL such as https://api.us-east.tinybird.co.
	Host              string        `envconfig:"HOST"`
	Region            string        `envconfig:"REGION"`
	Local             bool          `envconfig:"LOCAL" default:"false"`
	LocalPort         int           `envconfig:"LOCAL_PORT" default:"7181"`
	APIVersion        string        `envconfig:"API_VERSION" default:"v0"`
	MaxRetries        int           `envconfig:"MAX_RETRIES" default:"3"`
	RetryDelay        time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
	BackoffMultiplier float64       `envconfig:"RETRY_BACKOFF_MULTIPLIER" default:"2"`
	Timeout           time.Duration `envconfig:"TIMEOUT" default:"30s"`
	RateLimit         float64       `envconfig:"RATE_LIMIT" default:"0"`
	RateBurst         int           `envconfig:"RATE_BURST" default:"1"`
}

// LoadEnvConfig reads the configuration from the environment.
func LoadEnvConfig() (*EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Options converts the configuration to client options. When no host,
// region or local flag is set, the region is taken from the token.
func (e *EnvConfig) Options() []Option {
	opts := []Option{
		WithAPIVersion(e.APIVersion),
		WithRetries(e.MaxRetries),
		WithRetryDelay(e.RetryDelay),
		WithBackoffMultiplier(e.BackoffMultiplier),
		WithTimeout(e.Timeout),
	}
	if e.RateLimit > 0 {
		opts = append(opts, WithRateLimit(e.RateLimit, e.RateBurst))
	}

	switch {
	case e.Host != "":
		opts = append(opts, WithBaseURL(e.Host))
	case e.Region != "":
		opts = append(opts, WithRegion(region.Region(e.Region)))
	case e.Local:
		opts = append(opts, WithLocalPort(e.LocalPort))
	default:
		if tokeninfo.IsLocal(e.Token) {
			opts = append(opts, WithLocalPort(e.LocalPort))
		} else if r, ok := tokeninfo.RegionOf(e.Token); ok {
			opts = append(opts, WithRegion(r))
		}
	}
	return opts
}

// NewFromEnv creates a client from TB_* environment variables. opts are
// applied after the environment options.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := LoadEnvConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg.Token, append(cfg.Options(), opts...)...)
}
