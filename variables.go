package tinybird

import (
	"context"
	"net/http"

	"github.com/tinybird-go/tinybird-go/internal/api"
	"github.com/tinybird-go/tinybird-go/internal/query"
)

// Variable is an environment variable. Its value is never returned.
type Variable struct {
	resource
	Name      string       `json:"name"`
	Type      VariableType `json:"type"`
	EditedBy  string       `json:"edited_by"`
	CreatedAt Time         `json:"created_at"`
	UpdatedAt Time         `json:"updated_at"`
}

// VariablesService manages environment variables.
type VariablesService struct {
	client *Client
}

// List returns the variables of the workspace.
func (s *VariablesService) List(ctx context.Context) ([]*Variable, error) {
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: "variables"})
	if err != nil {
		return nil, err
	}
	return decodeList[Variable](body, "variables")
}

// Retrieve returns a variable by name.
func (s *VariablesService) Retrieve(ctx context.Context, name string) (*Variable, error) {
	if err := requireName("variable name", name); err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: pathOf("variables", name)})
	if err != nil {
		return nil, err
	}
	return decodeResource[Variable](body)
}

// Create creates a variable. An empty type defaults to VariableTypeSecret.
func (s *VariablesService) Create(ctx context.Context, name, value string, typ VariableType) (*Variable, error) {
	if err := requireName("variable name", name); err != nil {
		return nil, err
	}
	if typ == "" {
		typ = VariableTypeSecret
	}
	form := query.Values{
		{Key: "name", Value: name},
		{Key: "value", Value: value},
		{Key: "type", Value: string(typ)},
	}
	return s.send(ctx, http.MethodPost, "variables", form)
}

// Update replaces the value of a variable.
func (s *VariablesService) Update(ctx context.Context, name, value string) (*Variable, error) {
	if err := requireName("variable name", name); err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPut, pathOf("variables", name), query.Values{{Key: "value", Value: value}})
}

// Remove deletes a variable.
func (s *VariablesService) Remove(ctx context.Context, name string) (*DeleteResult, error) {
	if err := requireName("variable name", name); err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodDelete, Path: pathOf("variables", name)})
	if err != nil {
		return nil, err
	}
	return decodeResource[DeleteResult](body)
}

func (s *VariablesService) send(ctx context.Context, method, path string, form query.Values) (*Variable, error) {
	body, err := s.client.request(ctx, &api.Request{
		Method: method,
		Path:   path,
		Body:   form.Encode(),
		Header: http.Header{"Content-Type": {ContentTypeFormURLEncoded}},
	})
	if err != nil {
		return nil, err
	}
	return decodeResource[Variable](body)
}
