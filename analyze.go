package tinybird

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/tinybird-go/tinybird-go/internal/api"
	"github.com/tinybird-go/tinybird-go/internal/ndjson"
	"github.com/tinybird-go/tinybird-go/internal/query"
)

var parquetMagic = []byte("PAR1")

// AnalyzedColumn is a column inferred from sample data.
type AnalyzedColumn struct {
	Name            string  `json:"name"`
	Path            string  `json:"path"`
	RecommendedType string  `json:"recommended_type"`
	PresentPct      float64 `json:"present_pct"`
}

// HasNulls reports whether some sampled rows lack the column.
func (c AnalyzedColumn) HasNulls() bool {
	return c.PresentPct < 1
}

// AnalyzeResult is the schema inferred by the Analyze API.
type AnalyzeResult struct {
	resource
	Schema      string           `json:"schema"`
	Columns     []AnalyzedColumn `json:"columns"`
	PreviewData []map[string]any `json:"preview_data"`
	PreviewRows int              `json:"preview_rows"`
}

// The API nests the schema under "analysis" and the sample under "preview".
func (r *AnalyzeResult) normalize(fields map[string]json.RawMessage) {
	if raw, ok := fields["analysis"]; ok {
		var analysis struct {
			Schema  string           `json:"schema"`
			Columns []AnalyzedColumn `json:"columns"`
		}
		if json.Unmarshal(raw, &analysis) == nil {
			r.Schema = analysis.Schema
			r.Columns = analysis.Columns
		}
	}
	if raw, ok := fields["preview"]; ok {
		var preview struct {
			Data []map[string]any `json:"data"`
			Rows int              `json:"rows"`
		}
		if json.Unmarshal(raw, &preview) == nil {
			r.PreviewData = preview.Data
			r.PreviewRows = preview.Rows
		}
	}
}

// ColumnNames returns the inferred column names in order.
func (r *AnalyzeResult) ColumnNames() []string {
	names := make([]string, 0, len(r.Columns))
	for _, c := range r.Columns {
		names = append(names, c.Name)
	}
	return names
}

// DetectContentType guesses the format of sample data: Parquet by its magic
// bytes, NDJSON when the first line is a JSON object, CSV otherwise.
func DetectContentType(content []byte) string {
	if bytes.HasPrefix(content, parquetMagic) {
		return ContentTypeParquet
	}
	if ndjson.FirstLineIsObject(content) {
		return ContentTypeNDJSON
	}
	return ContentTypeCSV
}

// AnalyzeService infers data source schemas from sample data.
type AnalyzeService struct {
	client *Client
}

// Content analyzes sample data. An empty contentType is detected with
// DetectContentType.
func (s *AnalyzeService) Content(ctx context.Context, content []byte, contentType string) (*AnalyzeResult, error) {
	if len(content) == 0 {
		return nil, validationError("content", "must not be empty")
	}
	if contentType == "" {
		contentType = DetectContentType(content)
	}
	body, err := s.client.request(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   "analyze",
		Body:   content,
		Header: http.Header{"Content-Type": {contentType}},
	})
	if err != nil {
		return nil, err
	}
	return decodeResource[AnalyzeResult](body)
}

// URL analyzes a remote file.
func (s *AnalyzeService) URL(ctx context.Context, url string) (*AnalyzeResult, error) {
	if err := requireName("url", url); err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   "analyze",
		Query:  query.Values{{Key: "url", Value: url}},
	})
	if err != nil {
		return nil, err
	}
	return decodeResource[AnalyzeResult](body)
}

// Records analyzes rows encoded as NDJSON.
func (s *AnalyzeService) Records(ctx context.Context, records []map[string]any) (*AnalyzeResult, error) {
	if len(records) == 0 {
		return nil, validationError("records", "must not be empty")
	}
	data, err := ndjson.Marshal(records)
	if err != nil {
		return nil, &ValidationError{Field: "records", Message: err.Error(), Err: err}
	}
	return s.Content(ctx, data, ContentTypeNDJSON)
}
