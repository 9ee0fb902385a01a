package tinybird

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/tinybird-go/tinybird-go/internal/api"
	"github.com/tinybird-go/tinybird-go/internal/ndjson"
	"github.com/tinybird-go/tinybird-go/internal/query"
)

// IngestResult reports what the Events API accepted.
type IngestResult struct {
	resource
	SuccessfulRows  int     `json:"successful_rows"`
	QuarantinedRows int     `json:"quarantined_rows"`
	ImportID        string  `json:"import_id"`
	Datasource      any     `json:"datasource"`
	ElapsedTime     float64 `json:"elapsed_time"`
}

// HasQuarantinedRows reports whether any row was rejected.
func (r *IngestResult) HasQuarantinedRows() bool {
	return r.QuarantinedRows > 0
}

type eventsConfig struct {
	wait bool
}

// EventsOption configures an ingestion call.
type EventsOption func(*eventsConfig)

// WithWait makes the API acknowledge only after the rows are written, and
// report row counts in the result.
func WithWait() EventsOption {
	return func(c *eventsConfig) {
		c.wait = true
	}
}

// EventsService streams rows into data sources through the Events API.
type EventsService struct {
	client *Client
}

// Send encodes events as NDJSON and sends them to the data source.
func (s *EventsService) Send(ctx context.Context, datasource string, events []map[string]any, opts ...EventsOption) (*IngestResult, error) {
	return SendEvents(ctx, s, datasource, events, opts...)
}

// SendEvents is Send for any JSON-encodable row type.
func SendEvents[T any](ctx context.Context, s *EventsService, datasource string, events []T, opts ...EventsOption) (*IngestResult, error) {
	if len(events) == 0 {
		return nil, validationError("events", "must not be empty")
	}
	data, err := ndjson.Marshal(events)
	if err != nil {
		return nil, &ValidationError{Field: "events", Message: err.Error(), Err: err}
	}
	return s.post(ctx, datasource, data, ContentTypeNDJSON, "", "", opts)
}

// SendJSON sends a single event as a JSON object.
func (s *EventsService) SendJSON(ctx context.Context, datasource string, event any, opts ...EventsOption) (*IngestResult, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, &ValidationError{Field: "event", Message: err.Error(), Err: err}
	}
	return s.post(ctx, datasource, data, ContentTypeJSON, "", "json", opts)
}

// SendNDJSON sends pre-encoded NDJSON.
func (s *EventsService) SendNDJSON(ctx context.Context, datasource string, data []byte, opts ...EventsOption) (*IngestResult, error) {
	if len(data) == 0 {
		return nil, validationError("events", "must not be empty")
	}
	return s.post(ctx, datasource, data, ContentTypeNDJSON, "", "", opts)
}

// SendGzip sends NDJSON that is already gzip compressed.
func (s *EventsService) SendGzip(ctx context.Context, datasource string, compressed []byte, opts ...EventsOption) (*IngestResult, error) {
	return s.post(ctx, datasource, compressed, ContentTypeNDJSON, "gzip", "", opts)
}

// SendZstd sends NDJSON that is already zstd compressed.
func (s *EventsService) SendZstd(ctx context.Context, datasource string, compressed []byte, opts ...EventsOption) (*IngestResult, error) {
	return s.post(ctx, datasource, compressed, ContentTypeNDJSON, "zstd", "", opts)
}

// SendCompressed encodes events as NDJSON, compresses them with codec and
// sends them. CompressionNone sends them uncompressed.
func (s *EventsService) SendCompressed(ctx context.Context, datasource string, events []map[string]any, codec Compression, opts ...EventsOption) (*IngestResult, error) {
	if len(events) == 0 {
		return nil, validationError("events", "must not be empty")
	}
	data, err := ndjson.Marshal(events)
	if err != nil {
		return nil, &ValidationError{Field: "events", Message: err.Error(), Err: err}
	}

	switch codec {
	case CompressionNone, "":
		return s.post(ctx, datasource, data, ContentTypeNDJSON, "", "", opts)
	case CompressionGzip, CompressionGz:
		compressed, err := Gzip(data)
		if err != nil {
			return nil, err
		}
		return s.SendGzip(ctx, datasource, compressed, opts...)
	case CompressionZstd:
		compressed, err := Zstd(data)
		if err != nil {
			return nil, err
		}
		return s.SendZstd(ctx, datasource, compressed, opts...)
	}
	return nil, validationError("compression", fmt.Sprintf("unsupported codec %q", codec))
}

func (s *EventsService) post(ctx context.Context, datasource string, body []byte, contentType, encoding, format string, opts []EventsOption) (*IngestResult, error) {
	if err := requireName("data source name", datasource); err != nil {
		return nil, err
	}
	if len(body) > LimitEventsRequestBytes {
		return nil, &ValidationError{
			Field:   "events",
			Message: fmt.Sprintf("payload is %d bytes, the Events API accepts at most %d", len(body), LimitEventsRequestBytes),
		}
	}

	cfg := &eventsConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	q := query.Values{{Key: "name", Value: datasource}}
	if cfg.wait {
		q.Add("wait", "true")
	}
	if format != "" {
		q.Add("format", format)
	}

	header := http.Header{"Content-Type": {contentType}}
	if encoding != "" {
		header.Set("Content-Encoding", encoding)
	}

	resp, err := s.client.request(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   "events",
		Query:  q,
		Body:   body,
		Header: header,
	})
	if err != nil {
		return nil, err
	}
	return decodeResource[IngestResult](resp)
}

// Gzip compresses data for SendGzip.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip events: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip events: %w", err)
	}
	return buf.Bytes(), nil
}

// Zstd compresses data for SendZstd.
func Zstd(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd events: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}
