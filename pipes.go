package tinybird

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"github.com/tinybird-go/tinybird-go/internal/api"
)

// Node is one SQL step of a pipe.
type Node struct {
	resource
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	SQL             string         `json:"sql"`
	Description     string         `json:"description"`
	Materialized    any            `json:"materialized"`
	Cluster         string         `json:"cluster"`
	NodeType        string         `json:"node_type"`
	Version         int            `json:"version"`
	Project         string         `json:"project"`
	Result          string         `json:"result"`
	IgnoreSQLErrors bool           `json:"ignore_sql_errors"`
	Tags            map[string]any `json:"tags"`
	Dependencies    []string       `json:"dependencies"`
	Params          []NodeParam    `json:"params"`
	CreatedAt       Time           `json:"created_at"`
	UpdatedAt       Time           `json:"updated_at"`
	// Job is set when the node started a job, such as a sink run.
	Job *Job `json:"job"`
}

// NodeParam is a template parameter declared by a node.
type NodeParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     any    `json:"default"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// IsMaterialized reports whether the node writes into a materialized view.
// The API reports this as a boolean or as the target data source.
func (n *Node) IsMaterialized() bool {
	switch v := n.Materialized.(type) {
	case bool:
		return v
	case string:
		return v != ""
	}
	return false
}

// Pipe is a chain of nodes, optionally published as an API endpoint.
type Pipe struct {
	resource
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Type             string         `json:"type"`
	Endpoint         string         `json:"endpoint"`
	Parent           string         `json:"parent"`
	URL              string         `json:"url"`
	PublishedVersion string         `json:"published_version"`
	PublishedDate    Time           `json:"published_date"`
	Project          string         `json:"project"`
	SinkNode         string         `json:"sink_node"`
	Schedule         map[string]any `json:"schedule"`
	LastCommit       map[string]any `json:"last_commit"`
	Tags             map[string]any `json:"tags"`
	CreatedAt        Time           `json:"created_at"`
	UpdatedAt        Time           `json:"updated_at"`
	Nodes            []*Node        `json:"nodes"`
}

// Older API versions nest the nodes under "pipeline".
func (p *Pipe) normalize(fields map[string]json.RawMessage) {
	if len(p.Nodes) > 0 {
		return
	}
	var pipeline struct {
		Nodes []*Node `json:"nodes"`
	}
	if raw, ok := fields["pipeline"]; ok && json.Unmarshal(raw, &pipeline) == nil {
		p.Nodes = pipeline.Nodes
	}
}

// IsEndpoint reports whether the pipe is published as an API endpoint.
func (p *Pipe) IsEndpoint() bool {
	return p.Endpoint != ""
}

// IsSink reports whether the pipe exports to a sink.
func (p *Pipe) IsSink() bool {
	return p.Type == "sink" || p.SinkNode != ""
}

// FindNode returns the node with the given name or id.
func (p *Pipe) FindNode(nameOrID string) *Node {
	for _, n := range p.Nodes {
		if n.ID == nameOrID || n.Name == nameOrID {
			return n
		}
	}
	return nil
}

// FindEndpointNode returns the published node, or nil.
func (p *Pipe) FindEndpointNode() *Node {
	if p.Endpoint == "" {
		return nil
	}
	return p.FindNode(p.Endpoint)
}

// FindSinkNode returns the sink node, or nil.
func (p *Pipe) FindSinkNode() *Node {
	if p.SinkNode == "" {
		return nil
	}
	return p.FindNode(p.SinkNode)
}

// ExplainResult is the query plan of a pipe or node.
type ExplainResult struct {
	resource
	DebugQuery   string `json:"debug_query"`
	QueryExplain string `json:"query_explain"`
}

// PipeQuery is one pipe call of a batch.
type PipeQuery struct {
	Name   string
	Params any
}

// PipesService reads pipes and queries their endpoints.
type PipesService struct {
	client *Client
}

// List returns the pipes of the workspace.
func (s *PipesService) List(ctx context.Context, opts *PipesListParams) ([]*Pipe, error) {
	q, err := encodeParams(opts)
	if err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: "pipes", Query: q})
	if err != nil {
		return nil, err
	}
	return decodeList[Pipe](body, "pipes")
}

// Retrieve returns a pipe by name or id.
func (s *PipesService) Retrieve(ctx context.Context, name string) (*Pipe, error) {
	if err := requireName("pipe name", name); err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: pathOf("pipes", name)})
	if err != nil {
		return nil, err
	}
	return decodeResource[Pipe](body)
}

func (s *PipesService) dataRequest(name string, format PipeFormat, params any) (*api.Request, error) {
	if err := requireName("pipe name", name); err != nil {
		return nil, err
	}
	q, err := encodeParams(params)
	if err != nil {
		return nil, err
	}
	return &api.Request{
		Method: http.MethodGet,
		Path:   pathOf("pipes", name+"."+string(format)),
		Query:  q,
	}, nil
}

// Data calls the pipe endpoint with the given template parameters and
// returns the JSON result. params may be a struct or a map.
func (s *PipesService) Data(ctx context.Context, name string, params any) (*QueryResult, error) {
	req, err := s.dataRequest(name, PipeFormatJSON, params)
	if err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeQueryResult(body)
}

// Query is an alias of Data.
func (s *PipesService) Query(ctx context.Context, name string, params any) (*QueryResult, error) {
	return s.Data(ctx, name, params)
}

// Export calls the pipe endpoint in a non-JSON format and returns the body
// unparsed.
func (s *PipesService) Export(ctx context.Context, name string, format PipeFormat, params any) ([]byte, error) {
	req, err := s.dataRequest(name, format, params)
	if err != nil {
		return nil, err
	}
	req.Header = http.Header{"Accept": {"*/*"}}
	return s.client.requestRaw(ctx, req)
}

// Explain returns the query plan of the pipe, or of one node when nodeID is
// set.
func (s *PipesService) Explain(ctx context.Context, name, nodeID string, params any) (*ExplainResult, error) {
	if err := requireName("pipe name", name); err != nil {
		return nil, err
	}
	path := pathOf("pipes", name, "explain")
	if nodeID != "" {
		path = pathOf("pipes", name, "nodes", nodeID, "explain")
	}
	q, err := encodeParams(params)
	if err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return nil, err
	}
	return decodeResource[ExplainResult](body)
}

// QueryBatch calls several pipe endpoints keyed by alias.
func (s *PipesService) QueryBatch(ctx context.Context, queries map[string]PipeQuery) (map[string]BatchResult[*QueryResult], error) {
	aliases := make([]string, 0, len(queries))
	for alias := range queries {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)

	items := make([]api.BatchItem, 0, len(queries))
	for _, alias := range aliases {
		pq := queries[alias]
		req, err := s.dataRequest(pq.Name, PipeFormatJSON, pq.Params)
		if err != nil {
			return nil, fmt.Errorf("pipe query %q: %w", alias, err)
		}
		items = append(items, api.BatchItem{Key: alias, Request: req})
	}
	return runBatch(ctx, s.client, items, decodeQueryResult)
}
