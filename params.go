package tinybird

import (
	"time"

	"github.com/tinybird-go/tinybird-go/internal/params"
	"github.com/tinybird-go/tinybird-go/internal/query"
)

// Request parameter structs are encoded field by field: the field name in
// snake_case is the parameter name, zero values are left out and slices
// repeat the key. Pointer fields send their value even when it is zero.

// QueryParams are optional settings of the Query API.
type QueryParams struct {
	// Pipeline is the pipe substituted for "_" in the query.
	Pipeline                           string
	OutputFormatJSONQuote64bitIntegers *int
	OutputFormatJSONQuoteDenormals     *int
	OutputFormatParquetStringAsString  *int
}

// JobsListParams filter the jobs list.
type JobsListParams struct {
	Kind          JobKind
	Status        JobStatus
	PipeID        string
	PipeName      string
	CreatedAfter  time.Time
	CreatedBefore time.Time
}

// PipesListParams control the pipes list.
type PipesListParams struct {
	Dependencies *bool
	// Attrs and NodeAttrs are comma separated attribute names.
	Attrs     string
	NodeAttrs string
}

// CreateTokenParams describe a static token. Scopes use the form
// "DATASOURCES:READ:events".
type CreateTokenParams struct {
	Name        string
	Scopes      []string `param:"scope"`
	Description string
}

// UpdateTokenParams change a token. Empty fields are left unchanged.
type UpdateTokenParams struct {
	Name        string
	Scopes      []string `param:"scope"`
	Description string
}

// JWTScope grants a JWT access to one resource.
type JWTScope struct {
	Type        string         `json:"type"`
	Resource    string         `json:"resource"`
	FixedParams map[string]any `json:"fixed_params,omitempty"`
}

// CreateJWTParams describe a JWT token.
type CreateJWTParams struct {
	Name           string
	ExpirationTime time.Time
	Scopes         []JWTScope
}

// CreateSinkParams configure a sink on a pipe node.
type CreateSinkParams struct {
	Connection    string
	Path          string
	FileTemplate  string
	Format        PipeFormat
	Compression   Compression
	ScheduleCron  string
	WriteStrategy SinkWriteStrategy
}

// Int returns a pointer to v, for optional integer parameters.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for optional boolean parameters.
func Bool(v bool) *bool { return &v }

func encodeParams(v any) (query.Values, error) {
	q, err := params.Encode(v)
	if err != nil {
		return nil, &ValidationError{Field: "params", Message: err.Error(), Err: err}
	}
	return q, nil
}

// mergeParams encodes each of vs in order into one Values. Later keys are
// appended, not replaced.
func mergeParams(vs ...any) (query.Values, error) {
	var out query.Values
	for _, v := range vs {
		if err := params.AppendTo(&out, v); err != nil {
			return nil, &ValidationError{Field: "params", Message: err.Error(), Err: err}
		}
	}
	return out, nil
}

// encodeForm renders v as an application/x-www-form-urlencoded body.
func encodeForm(v any) (string, error) {
	q, err := encodeParams(v)
	if err != nil {
		return "", err
	}
	return q.Encode(), nil
}
