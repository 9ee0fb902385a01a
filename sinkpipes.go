package tinybird

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tinybird-go/tinybird-go/internal/api"
	"github.com/tinybird-go/tinybird-go/internal/query"
)

// S3Settings identify the Tinybird principal to trust in an S3 bucket policy.
type S3Settings struct {
	resource
	Principal  string `json:"principal"`
	ExternalID string `json:"external_id"`
}

// GCSCredentials name the service account to grant bucket access to.
type GCSCredentials struct {
	resource
	Account string `json:"account"`
}

// SinkPipesService manages pipes that export to object storage.
type SinkPipesService struct {
	client *Client
}

func sinkPath(pipeID, nodeID string) (string, error) {
	if err := requireName("pipe id", pipeID); err != nil {
		return "", err
	}
	if err := requireName("node id", nodeID); err != nil {
		return "", err
	}
	return pathOf("pipes", pipeID, "nodes", nodeID, "sink"), nil
}

// Create turns a node into a sink.
func (s *SinkPipesService) Create(ctx context.Context, pipeID, nodeID string, p *CreateSinkParams) (*Pipe, error) {
	path, err := sinkPath(pipeID, nodeID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.Connection == "" {
		return nil, validationError("connection", "must not be empty")
	}
	if p.Path == "" {
		return nil, validationError("path", "must not be empty")
	}
	form, err := encodeForm(p)
	if err != nil {
		return nil, err
	}

	body, err := s.client.request(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   form,
		Header: http.Header{"Content-Type": {ContentTypeFormURLEncoded}},
	})
	if err != nil {
		return nil, err
	}
	return decodeResource[Pipe](body)
}

// Remove turns a sink node back into a regular node.
func (s *SinkPipesService) Remove(ctx context.Context, pipeID, nodeID string) (*Pipe, error) {
	path, err := sinkPath(pipeID, nodeID)
	if err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodDelete, Path: path})
	if err != nil {
		return nil, err
	}
	return decodeResource[Pipe](body)
}

// Trigger runs a sink on demand. params are sent as form fields and may
// override template parameters. The returned node carries the started job.
func (s *SinkPipesService) Trigger(ctx context.Context, pipeID string, params any) (*Node, error) {
	if err := requireName("pipe id", pipeID); err != nil {
		return nil, err
	}
	form, err := encodeForm(params)
	if err != nil {
		return nil, err
	}

	req := &api.Request{Method: http.MethodPost, Path: pathOf("pipes", pipeID, "sink")}
	if form != "" {
		req.Body = form
		req.Header = http.Header{"Content-Type": {ContentTypeFormURLEncoded}}
	}
	body, err := s.client.request(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeResource[Node](body)
}

// S3Settings returns the settings needed to grant Tinybird access to S3.
func (s *SinkPipesService) S3Settings(ctx context.Context) (*S3Settings, error) {
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: "integrations/s3/settings"})
	if err != nil {
		return nil, err
	}
	return decodeResource[S3Settings](body)
}

// S3TrustPolicy returns the IAM trust policy document for the S3 role.
func (s *SinkPipesService) S3TrustPolicy(ctx context.Context) (json.RawMessage, error) {
	return s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: "integrations/s3/policies/trust-policy"})
}

// S3WriteAccessPolicy returns the IAM write policy document, scoped to
// bucket when it is set.
func (s *SinkPipesService) S3WriteAccessPolicy(ctx context.Context, bucket string) (json.RawMessage, error) {
	var q query.Values
	if bucket != "" {
		q.Add("bucket", bucket)
	}
	return s.client.request(ctx, &api.Request{
		Method: http.MethodGet,
		Path:   "integrations/s3/policies/write-access-policy",
		Query:  q,
	})
}

// GCSCredentials returns the service account to grant GCS access to.
func (s *SinkPipesService) GCSCredentials(ctx context.Context) (*GCSCredentials, error) {
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: "datasources-bigquery-credentials"})
	if err != nil {
		return nil, err
	}
	return decodeResource[GCSCredentials](body)
}
