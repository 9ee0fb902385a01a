package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/http2"

	"github.com/tinybird-go/tinybird-go/internal/apierrors"
)

// DefaultTimeout is the per-attempt timeout of the default transport.
const DefaultTimeout = 30 * time.Second

// TransportRequest is a fully built request handed to a Transport.
type TransportRequest struct {
	Method string
	// Path is relative to the transport's base URL and includes the query.
	Path   string
	Header http.Header
	Body   []byte
}

// Response is the raw outcome of one attempt.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a single HTTP request. Implementations return an error
// only when no HTTP response was received; every status code is returned
// as a Response. Transports must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, req *TransportRequest) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *TransportRequest) (*Response, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, req *TransportRequest) (*Response, error) {
	return f(ctx, req)
}

// RestyTransport is the default Transport, backed by resty.
type RestyTransport struct {
	client  *resty.Client
	baseURL string
}

// TransportOption configures a RestyTransport.
type TransportOption func(*transportConfig)

type transportConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	http2      bool
}

// WithHTTPClient makes the transport send through c.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(cfg *transportConfig) {
		cfg.httpClient = c
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) TransportOption {
	return func(cfg *transportConfig) {
		cfg.timeout = d
	}
}

// WithHTTP2 negotiates HTTP/2 over TLS.
func WithHTTP2() TransportOption {
	return func(cfg *transportConfig) {
		cfg.http2 = true
	}
}

// NewRestyTransport returns a transport sending requests to baseURL.
func NewRestyTransport(baseURL string, opts ...TransportOption) (*RestyTransport, error) {
	cfg := transportConfig{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	var client *resty.Client
	if cfg.httpClient != nil {
		client = resty.NewWithClient(cfg.httpClient)
	} else {
		client = resty.New()
	}

	if cfg.http2 {
		transport, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			return nil, fmt.Errorf("default transport is %T, not *http.Transport", http.DefaultTransport)
		}
		transport = transport.Clone()
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, fmt.Errorf("failed to configure HTTP/2: %w", err)
		}
		client.SetTransport(transport)
	}

	baseURL = strings.TrimRight(baseURL, "/")
	client.
		SetBaseURL(baseURL).
		SetTimeout(cfg.timeout).
		SetRetryCount(0)

	return &RestyTransport{client: client, baseURL: baseURL}, nil
}

// BaseURL returns the URL requests are resolved against.
func (t *RestyTransport) BaseURL() string {
	return t.baseURL
}

// Send implements Transport.
func (t *RestyTransport) Send(ctx context.Context, req *TransportRequest) (*Response, error) {
	r := t.client.R().
		SetContext(ctx).
		SetHeaderMultiValues(req.Header)
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, &apierrors.NetworkError{Err: err, URL: t.baseURL + req.Path}
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}
