package tinybird

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/tinybird-go/tinybird-go/internal/api"
	"github.com/tinybird-go/tinybird-go/internal/query"
)

const sqlPath = "sql"

// ColumnMeta names and types one result column.
type ColumnMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryStatistics describe the work done by a query.
type QueryStatistics struct {
	Elapsed   float64 `json:"elapsed"`
	RowsRead  int64   `json:"rows_read"`
	BytesRead int64   `json:"bytes_read"`
}

// QueryResult is a JSON result of the Query API or a pipe endpoint.
type QueryResult struct {
	resource
	Data                   []map[string]any `json:"data"`
	Meta                   []ColumnMeta     `json:"meta"`
	Rows                   int              `json:"rows"`
	RowsBeforeLimitAtLeast int              `json:"rows_before_limit_at_least"`
	Statistics             QueryStatistics  `json:"statistics"`
}

// ColumnNames returns the result column names in order.
func (r *QueryResult) ColumnNames() []string {
	names := make([]string, 0, len(r.Meta))
	for _, m := range r.Meta {
		names = append(names, m.Name)
	}
	return names
}

// Empty reports whether the result has no rows.
func (r *QueryResult) Empty() bool {
	return len(r.Data) == 0
}

// DecodeRows decodes the rows of r into T, which is usually a struct with
// json tags matching the column names.
func DecodeRows[T any](r *QueryResult) ([]T, error) {
	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(r.RawJSON(), &envelope); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if envelope.Data == nil {
		envelope.Data = []T{}
	}
	return envelope.Data, nil
}

func decodeQueryResult(data json.RawMessage) (*QueryResult, error) {
	return decodeResource[QueryResult](data)
}

// QueryService runs SQL through the Query API.
type QueryService struct {
	client *Client
}

// formatQuery trims the trailing semicolons of sql and appends a FORMAT
// clause unless one is already present.
func formatQuery(sql string, format QueryFormat) (string, error) {
	sql = strings.TrimRight(strings.TrimSpace(sql), ";")
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return "", validationError("query", "must not be empty")
	}
	if strings.Contains(strings.ToUpper(sql), " FORMAT ") {
		return sql, nil
	}
	return sql + " FORMAT " + string(format), nil
}

func (s *QueryService) getRequest(sql string, format QueryFormat, opts *QueryParams, extra map[string]any) (*api.Request, error) {
	q, err := formatQuery(sql, format)
	if err != nil {
		return nil, err
	}
	if len(q) > LimitSQLLengthBytes {
		return nil, &ValidationError{
			Field:   "query",
			Message: fmt.Sprintf("is %d bytes, GET queries are limited to %d; use SQLPost", len(q), LimitSQLLengthBytes),
		}
	}

	values := query.Values{{Key: "q", Value: q}}
	rest, err := mergeParams(opts, extra)
	if err != nil {
		return nil, err
	}
	values.Merge(rest)
	return &api.Request{Method: http.MethodGet, Path: sqlPath, Query: values}, nil
}

// SQL runs a query with GET /v0/sql and returns the JSON result. FORMAT JSON
// is appended unless the query names a format. extra adds query parameters
// such as template values.
func (s *QueryService) SQL(ctx context.Context, sql string, opts *QueryParams, extra map[string]any) (*QueryResult, error) {
	req, err := s.getRequest(sql, QueryFormatJSON, opts, extra)
	if err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeQueryResult(body)
}

// SQLPost runs a templated query with POST /v0/sql. Prefix the query with
// "%" and reference parameters as {{Type(name)}}.
func (s *QueryService) SQLPost(ctx context.Context, sql string, templateParams map[string]any, opts *QueryParams) (*QueryResult, error) {
	q, err := formatQuery(sql, QueryFormatJSON)
	if err != nil {
		return nil, err
	}
	optValues, err := encodeParams(opts)
	if err != nil {
		return nil, err
	}

	body := map[string]any{"q": q}
	for _, p := range optValues {
		body[p.Key] = p.Value
	}
	for k, v := range templateParams {
		body[k] = v
	}

	resp, err := s.client.request(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   sqlPath,
		Body:   body,
		Header: http.Header{"Content-Type": {ContentTypeJSON}},
	})
	if err != nil {
		return nil, err
	}
	return decodeQueryResult(resp)
}

// SQLPipeline runs a query in which "_" stands for the given pipe.
func (s *QueryService) SQLPipeline(ctx context.Context, sql, pipeline string, extra map[string]any) (*QueryResult, error) {
	if err := requireName("pipeline", pipeline); err != nil {
		return nil, err
	}
	return s.SQL(ctx, sql, &QueryParams{Pipeline: pipeline}, extra)
}

// Export runs a query in the given format and returns the body unparsed.
func (s *QueryService) Export(ctx context.Context, sql string, format QueryFormat) ([]byte, error) {
	req, err := s.getRequest(sql, format, nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header = http.Header{"Accept": {"*/*"}}
	return s.client.requestRaw(ctx, req)
}

// SQLBatch runs several queries keyed by alias. A failing query does not
// affect the others.
func (s *QueryService) SQLBatch(ctx context.Context, queries map[string]string) (map[string]BatchResult[*QueryResult], error) {
	aliases := make([]string, 0, len(queries))
	for alias := range queries {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)

	items := make([]api.BatchItem, 0, len(queries))
	for _, alias := range aliases {
		req, err := s.getRequest(queries[alias], QueryFormatJSON, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", alias, err)
		}
		items = append(items, api.BatchItem{Key: alias, Request: req})
	}
	return runBatch(ctx, s.client, items, decodeQueryResult)
}
