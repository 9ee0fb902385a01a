package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tinybird-go/tinybird-go/internal/apierrors"
	"github.com/tinybird-go/tinybird-go/internal/query"
)

// Default configuration values.
const (
	DefaultAPIVersion        = "v0"
	DefaultMaxRetries        = 3
	DefaultRetryDelay        = time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultUserAgent         = "tinybird-go"
)

// Config holds the settings of an API client. It is copied at construction.
type Config struct {
	// BaseURL is required unless Transport is set.
	BaseURL string
	// Token is sent as a bearer token on every request.
	Token      string
	APIVersion string
	// Retry defaults to DefaultRetryConfig when left zero.
	Retry RetryConfig

	// Transport overrides the default resty transport. HTTPClient, Timeout
	// and HTTP2 only apply to the default transport.
	Transport  Transport
	HTTPClient *http.Client
	Timeout    time.Duration
	HTTP2      bool

	Logger    *zap.Logger
	Limiter   *rate.Limiter
	Metrics   *Metrics
	UserAgent string
}

// Client executes requests against the Tinybird API, retrying transient
// failures. It holds no per-call state and is safe for concurrent use.
type Client struct {
	token      string
	apiVersion string
	userAgent  string
	transport  Transport
	retry      RetryConfig
	logger     *zap.Logger
	limiter    *rate.Limiter
	metrics    *Metrics

	sleep func(ctx context.Context, d time.Duration) error
}

// Request describes one logical API call.
type Request struct {
	Method string
	// Path is relative to the API version prefix, e.g. "pipes/top.json".
	Path  string
	Query query.Values
	// Body is sent verbatim when it is a string or []byte and encoded as
	// JSON otherwise. Empty bodies are not sent.
	Body   any
	Header http.Header
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, &apierrors.ValidationError{Field: "token", Message: "token is required", Err: apierrors.ErrMissingToken}
	}

	retry := cfg.Retry
	if retry == (RetryConfig{}) {
		retry = DefaultRetryConfig()
	}
	if retry.MaxAttempts < 1 {
		return nil, &apierrors.ValidationError{Field: "max retries", Message: "must be at least 1"}
	}
	if retry.BaseDelay < 0 {
		return nil, &apierrors.ValidationError{Field: "retry delay", Message: "must not be negative"}
	}
	if retry.Multiplier < 1 {
		return nil, &apierrors.ValidationError{Field: "backoff multiplier", Message: "must be at least 1"}
	}

	transport := cfg.Transport
	if transport == nil {
		if cfg.BaseURL == "" {
			return nil, &apierrors.ValidationError{Field: "base URL", Message: "base URL is required"}
		}
		var opts []TransportOption
		if cfg.HTTPClient != nil {
			opts = append(opts, WithHTTPClient(cfg.HTTPClient))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.HTTP2 {
			opts = append(opts, WithHTTP2())
		}
		rt, err := NewRestyTransport(cfg.BaseURL, opts...)
		if err != nil {
			return nil, err
		}
		transport = rt
	}

	c := &Client{
		token:      cfg.Token,
		apiVersion: cfg.APIVersion,
		userAgent:  cfg.UserAgent,
		transport:  transport,
		retry:      retry,
		logger:     cfg.Logger,
		limiter:    cfg.Limiter,
		metrics:    cfg.Metrics,
		sleep:      sleep,
	}
	if c.apiVersion == "" {
		c.apiVersion = DefaultAPIVersion
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	return c, nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *zap.Logger {
	return c.logger
}

// Request executes req and returns the JSON response body. An empty
// successful body is returned as {}.
func (c *Client) Request(ctx context.Context, req *Request) (json.RawMessage, error) {
	resp, err := c.RequestRaw(ctx, req)
	if err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return json.RawMessage("{}"), nil
	}
	var probe any
	if err := json.Unmarshal(body, &probe); err != nil {
		c.logger.Error("failed to decode response", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, &apierrors.ResponseDecodeError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}
	return json.RawMessage(body), nil
}

// RequestRaw executes req and returns the successful response without
// interpreting its body.
func (c *Client) RequestRaw(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("api: nil request")
	}

	path := c.buildPath(req.Path, req.Query)
	body, header, err := prepareBody(req.Body, req.Header)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	header.Set("Authorization", "Bearer "+c.token)
	if header.Get("Accept") == "" {
		header.Set("Accept", "application/json")
	}
	header.Set("User-Agent", c.userAgent)
	header.Set("X-Request-Id", requestID)

	endpoint := endpointLabel(req.Path)
	log := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("endpoint", endpoint),
	)

	start := time.Now()
	defer func() {
		c.metrics.observeDuration(req.Method, endpoint, time.Since(start))
	}()

	b := c.retry.newBackoff()
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if err := c.waitLimiter(ctx); err != nil {
			return nil, err
		}

		log.Debug("sending request", zap.Int("attempt", attempt+1), zap.Int("body_bytes", len(body)))
		resp, err := c.transport.Send(ctx, &TransportRequest{
			Method: req.Method,
			Path:   path,
			Header: header.Clone(),
			Body:   body,
		})

		if err != nil {
			c.metrics.observeAttempt(req.Method, endpoint, 0)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, canceled(ctxErr)
			}
			if c.retry.CanRetry(attempt) {
				delay := b.next(nil)
				log.Warn("request failed, retrying",
					zap.Error(err),
					zap.Int("attempt", attempt+1),
					zap.Duration("delay", delay),
				)
				c.metrics.observeRetry(endpoint, "transport")
				if err := c.sleep(ctx, delay); err != nil {
					return nil, canceled(err)
				}
				continue
			}
			log.Error("request failed", zap.Error(err), zap.Int("attempts", attempt+1))
			return nil, &apierrors.RequestTimeoutError{
				Message: fmt.Sprintf("request to Tinybird API failed after %d attempts", attempt+1),
				Err:     err,
			}
		}

		c.metrics.observeAttempt(req.Method, endpoint, resp.StatusCode)
		if resp.StatusCode < http.StatusMultipleChoices {
			log.Debug("request succeeded", zap.Int("status", resp.StatusCode))
			return resp, nil
		}

		if c.retry.ShouldRetry(attempt, resp.StatusCode) {
			delay := b.next(resp.Header)
			log.Warn("retryable response, retrying",
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
			)
			c.metrics.observeRetry(endpoint, http.StatusText(resp.StatusCode))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, canceled(err)
			}
			continue
		}

		apiErr := apierrors.Classify(resp.StatusCode, resp.Header, resp.Body, c.token)
		log.Warn("request rejected", zap.Int("status", resp.StatusCode), zap.Error(apiErr))
		return nil, apierrors.WithRequestID(apiErr, requestID)
	}

	return nil, &apierrors.APIError{StatusCode: 0, Message: "Max retries exceeded", RequestID: requestID}
}

func (c *Client) waitLimiter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return canceled(ctxErr)
		}
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

func (c *Client) buildPath(path string, q query.Values) string {
	full := "/" + c.apiVersion + "/" + strings.TrimLeft(path, "/")
	return query.AppendToPath(full, q)
}

// prepareBody encodes body and returns a private copy of header.
func prepareBody(body any, header http.Header) ([]byte, http.Header, error) {
	h := header.Clone()
	if h == nil {
		h = make(http.Header)
	}

	switch v := body.(type) {
	case nil:
		return nil, h, nil
	case string:
		if v == "" {
			return nil, h, nil
		}
		return []byte(v), h, nil
	case []byte:
		if len(v) == 0 {
			return nil, h, nil
		}
		return v, h, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	switch string(bytes.TrimSpace(data)) {
	case "{}", "[]", "null":
		return nil, h, nil
	}
	h.Set("Content-Type", "application/json")
	return data, h, nil
}

func canceled(err error) error {
	return fmt.Errorf("tinybird request canceled: %w", err)
}
