package tinybird

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/tinybird-go/tinybird-go/internal/api"
	"github.com/tinybird-go/tinybird-go/internal/query"
)

// Column is one column of a data source schema.
type Column struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	NormalizedName string `json:"normalized_name"`
	Codec          string `json:"codec"`
	DefaultValue   string `json:"default_value"`
	Nullable       bool   `json:"nullable"`
	JSONPath       string `json:"jsonpath"`
}

// IsNullable reports whether the column accepts NULL.
func (c Column) IsNullable() bool {
	return c.Nullable || strings.HasPrefix(c.Type, "Nullable(")
}

// Engine is the ClickHouse table engine of a data source.
type Engine struct {
	Engine       string `json:"engine"`
	SortingKey   string `json:"engine_sorting_key"`
	PartitionKey string `json:"engine_partition_key"`
	PrimaryKey   string `json:"engine_primary_key"`
}

// UsedBy references a pipe reading from a data source.
type UsedBy struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DataSource is a table of the workspace.
type DataSource struct {
	resource
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Cluster            string         `json:"cluster"`
	Description        string         `json:"description"`
	Type               string         `json:"type"`
	Replicated         bool           `json:"replicated"`
	Version            int            `json:"version"`
	Project            string         `json:"project"`
	QuarantineRows     int            `json:"quarantine_rows"`
	Tags               map[string]any `json:"tags"`
	Headers            map[string]any `json:"headers"`
	SharedWith         []string       `json:"shared_with"`
	NewColumnsDetected map[string]any `json:"new_columns_detected"`
	Engine             *Engine        `json:"engine"`
	Statistics         *Statistics    `json:"statistics"`
	Columns            []Column       `json:"columns"`
	UsedBy             []UsedBy       `json:"used_by"`
	CreatedAt          Time           `json:"created_at"`
	UpdatedAt          Time           `json:"updated_at"`
}

// FindColumn returns the column with the given name, or nil.
func (d *DataSource) FindColumn(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

// HasQuarantinedRows reports whether rows were rejected into the quarantine
// table.
func (d *DataSource) HasQuarantinedRows() bool {
	return d.QuarantineRows > 0
}

// IsShared reports whether the data source is shared with other workspaces.
func (d *DataSource) IsShared() bool {
	return len(d.SharedWith) > 0
}

// RowCount returns the row count statistic, if known.
func (d *DataSource) RowCount() (int64, bool) {
	if d.Statistics == nil || d.Statistics.RowCount == nil {
		return 0, false
	}
	return *d.Statistics.RowCount, true
}

// Bytes returns the storage size statistic, if known.
func (d *DataSource) Bytes() (int64, bool) {
	if d.Statistics == nil || d.Statistics.Bytes == nil {
		return 0, false
	}
	return *d.Statistics.Bytes, true
}

// DataSourcesService reads data sources.
type DataSourcesService struct {
	client *Client
}

// List returns the data sources of the workspace. attrs restricts the
// returned attributes.
func (s *DataSourcesService) List(ctx context.Context, attrs ...string) ([]*DataSource, error) {
	var q query.Values
	if len(attrs) > 0 {
		q.Add("attrs", strings.Join(attrs, ","))
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: "datasources", Query: q})
	if err != nil {
		return nil, err
	}
	return decodeList[DataSource](body, "datasources")
}

func (s *DataSourcesService) retrieveRequest(name string) (*api.Request, error) {
	if err := requireName("data source name", name); err != nil {
		return nil, err
	}
	return &api.Request{Method: http.MethodGet, Path: pathOf("datasources", name)}, nil
}

// Retrieve returns a data source by name.
func (s *DataSourcesService) Retrieve(ctx context.Context, name string) (*DataSource, error) {
	req, err := s.retrieveRequest(name)
	if err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeDataSource(body)
}

func decodeDataSource(data json.RawMessage) (*DataSource, error) {
	return decodeResource[DataSource](data)
}

// RetrieveBatch returns several data sources keyed by name. A missing data
// source only fails its own entry.
func (s *DataSourcesService) RetrieveBatch(ctx context.Context, names []string) (map[string]BatchResult[*DataSource], error) {
	names = slices.Clone(names)
	slices.Sort(names)
	names = slices.Compact(names)

	items := make([]api.BatchItem, 0, len(names))
	for _, name := range names {
		req, err := s.retrieveRequest(name)
		if err != nil {
			return nil, err
		}
		items = append(items, api.BatchItem{Key: name, Request: req})
	}
	return runBatch(ctx, s.client, items, decodeDataSource)
}
