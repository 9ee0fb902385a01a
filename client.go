package tinybird

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tinybird-go/tinybird-go/internal/api"
	"github.com/tinybird-go/tinybird-go/internal/query"
	"github.com/tinybird-go/tinybird-go/region"
)

// Client is the Tinybird API client. Endpoint groups are exposed as fields.
// A Client is safe for concurrent use.
type Client struct {
	apiClient        *api.Client
	baseURL          string
	batchConcurrency int

	Analyze     *AnalyzeService
	DataSources *DataSourcesService
	Events      *EventsService
	Jobs        *JobsService
	Pipes       *PipesService
	Query       *QueryService
	SinkPipes   *SinkPipesService
	Tokens      *TokensService
	Variables   *VariablesService
}

// buildAPIClient creates and configures an API client from the given config.
func buildAPIClient(token, baseURL string, cfg *clientConfig) (*api.Client, error) {
	apiCfg := api.Config{
		BaseURL:    baseURL,
		Token:      token,
		APIVersion: cfg.apiVersion,
		Retry: api.RetryConfig{
			MaxAttempts: cfg.maxRetries,
			BaseDelay:   cfg.retryDelay,
			Multiplier:  cfg.backoffMultiplier,
		},
		Transport:  cfg.transport,
		HTTPClient: cfg.httpClient,
		Timeout:    cfg.timeout,
		HTTP2:      cfg.http2,
		Logger:     cfg.logger,
		UserAgent:  cfg.userAgent,
	}

	if cfg.rateLimit > 0 {
		burst := cfg.rateBurst
		if burst < 1 {
			burst = 1
		}
		apiCfg.Limiter = rate.NewLimiter(rate.Limit(cfg.rateLimit), burst)
	}

	if cfg.registerer != nil {
		metrics, err := api.NewMetrics(cfg.registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		apiCfg.Metrics = metrics
	}

	return api.NewClient(apiCfg)
}

// New creates a Tinybird client. Without WithBaseURL, WithRegion or
// WithLocal the client talks to the default region (gcp-europe-west3).
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, &ValidationError{Field: "token", Message: "token is required", Err: ErrMissingToken}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	baseURL, err := cfg.resolveBaseURL()
	if err != nil {
		return nil, err
	}

	apiClient, err := buildAPIClient(token, baseURL, cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		apiClient:        apiClient,
		baseURL:          baseURL,
		batchConcurrency: max(cfg.batchConcurrency, 1),
	}
	c.Analyze = &AnalyzeService{client: c}
	c.DataSources = &DataSourcesService{client: c}
	c.Events = &EventsService{client: c}
	c.Jobs = &JobsService{client: c}
	c.Pipes = &PipesService{client: c}
	c.Query = &QueryService{client: c}
	c.SinkPipes = &SinkPipesService{client: c}
	c.Tokens = &TokensService{client: c}
	c.Variables = &VariablesService{client: c}

	apiClient.Logger().Debug("tinybird client created",
		zap.String("base_url", baseURL),
		zap.Int("max_retries", cfg.maxRetries),
	)
	return c, nil
}

// NewForRegion creates a client for the given region.
func NewForRegion(token string, r region.Region, opts ...Option) (*Client, error) {
	return New(token, append([]Option{WithRegion(r)}, opts...)...)
}

// NewLocal creates a client for Tinybird Local on the default port.
func NewLocal(token string, opts ...Option) (*Client, error) {
	return New(token, append([]Option{WithLocal()}, opts...)...)
}

// BaseURL returns the API base URL the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Logger returns the client's logger.
func (c *Client) Logger() *zap.Logger {
	return c.apiClient.Logger()
}

// Do sends a request to path (relative to the API version prefix) and
// returns the JSON body. queryParams may be a params struct, a map or nil.
// It is the escape hatch for endpoints without a typed wrapper.
func (c *Client) Do(ctx context.Context, method, path string, queryParams any, body any) (json.RawMessage, error) {
	q, err := encodeParams(queryParams)
	if err != nil {
		return nil, err
	}
	return c.apiClient.Request(ctx, &api.Request{Method: method, Path: path, Query: q, Body: body})
}

func (c *Client) request(ctx context.Context, req *api.Request) (json.RawMessage, error) {
	return c.apiClient.Request(ctx, req)
}

func (c *Client) requestRaw(ctx context.Context, req *api.Request) ([]byte, error) {
	resp, err := c.apiClient.RequestRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// pathOf joins escaped path segments.
func pathOf(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = query.Escape(seg)
	}
	return strings.Join(escaped, "/")
}
