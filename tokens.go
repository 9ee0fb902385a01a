package tinybird

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tinybird-go/tinybird-go/internal/api"
	"github.com/tinybird-go/tinybird-go/internal/query"
)

// TokenScope is one permission of a token.
type TokenScope struct {
	Type        string         `json:"type"`
	Resource    string         `json:"resource"`
	Filter      string         `json:"filter"`
	FixedParams map[string]any `json:"fixed_params"`
}

// Token is a static or JWT access token.
type Token struct {
	resource
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Token       string       `json:"token"`
	Scopes      []TokenScope `json:"scopes"`
}

// HasScope reports whether the token has a scope of the given type, such as
// "DATASOURCES:READ".
func (t *Token) HasScope(scopeType string) bool {
	for _, s := range t.Scopes {
		if s.Type == scopeType {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the token has the ADMIN scope.
func (t *Token) IsAdmin() bool {
	return t.HasScope("ADMIN")
}

// JWTClaims decodes the claims of a JWT token without verifying its
// signature. It fails for static tokens.
func (t *Token) JWTClaims() (jwt.MapClaims, error) {
	if t.Token == "" {
		return nil, errors.New("token value is empty")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.Token, claims); err != nil {
		return nil, fmt.Errorf("token is not a JWT: %w", err)
	}
	return claims, nil
}

// ExpiresAt returns the expiration of a JWT token.
func (t *Token) ExpiresAt() (time.Time, bool) {
	claims, err := t.JWTClaims()
	if err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// DeleteResult acknowledges a deletion.
type DeleteResult struct {
	resource
	OK bool `json:"ok"`
}

// TokensService manages workspace tokens.
type TokensService struct {
	client *Client
}

// List returns the tokens of the workspace.
func (s *TokensService) List(ctx context.Context) ([]*Token, error) {
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: "tokens"})
	if err != nil {
		return nil, err
	}
	return decodeList[Token](body, "tokens")
}

// Retrieve returns a token by name or id.
func (s *TokensService) Retrieve(ctx context.Context, name string) (*Token, error) {
	if err := requireName("token name", name); err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: pathOf("tokens", name)})
	if err != nil {
		return nil, err
	}
	return decodeResource[Token](body)
}

// Create creates a static token.
func (s *TokensService) Create(ctx context.Context, p *CreateTokenParams) (*Token, error) {
	if p == nil || p.Name == "" {
		return nil, validationError("token name", "must not be empty")
	}
	form, err := encodeForm(p)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   "tokens",
		Body:   form,
		Header: http.Header{"Content-Type": {ContentTypeFormURLEncoded}},
	})
}

// CreateJWT creates a JWT token that expires at p.ExpirationTime.
func (s *TokensService) CreateJWT(ctx context.Context, p *CreateJWTParams) (*Token, error) {
	if p == nil || p.Name == "" {
		return nil, validationError("token name", "must not be empty")
	}
	if p.ExpirationTime.IsZero() {
		return nil, validationError("expiration time", "must be set")
	}

	scopes := p.Scopes
	if scopes == nil {
		scopes = []JWTScope{}
	}
	return s.send(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   "tokens",
		Query: query.Values{
			{Key: "name", Value: p.Name},
			{Key: "expiration_time", Value: strconv.FormatInt(p.ExpirationTime.Unix(), 10)},
		},
		Body:   map[string]any{"scopes": scopes},
		Header: http.Header{"Content-Type": {ContentTypeJSON}},
	})
}

// Update changes the name, scopes or description of a token.
func (s *TokensService) Update(ctx context.Context, name string, p *UpdateTokenParams) (*Token, error) {
	if err := requireName("token name", name); err != nil {
		return nil, err
	}
	form, err := encodeForm(p)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, &api.Request{
		Method: http.MethodPut,
		Path:   pathOf("tokens", name),
		Body:   form,
		Header: http.Header{"Content-Type": {ContentTypeFormURLEncoded}},
	})
}

// Refresh rotates the token value.
func (s *TokensService) Refresh(ctx context.Context, name string) (*Token, error) {
	if err := requireName("token name", name); err != nil {
		return nil, err
	}
	return s.send(ctx, &api.Request{Method: http.MethodPost, Path: pathOf("tokens", name, "refresh")})
}

// Remove deletes a token.
func (s *TokensService) Remove(ctx context.Context, name string) (*DeleteResult, error) {
	if err := requireName("token name", name); err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodDelete, Path: pathOf("tokens", name)})
	if err != nil {
		return nil, err
	}
	return decodeResource[DeleteResult](body)
}

func (s *TokensService) send(ctx context.Context, req *api.Request) (*Token, error) {
	body, err := s.client.request(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeResource[Token](body)
}
