package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinybird-go/tinybird-go/internal/apierrors"
)

func TestBatch_PartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Pipe not found"}`))
			return
		}
		w.Write([]byte(`{"name":"` + strings.TrimPrefix(r.URL.Path, "/v0/pipes/") + `"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, Token: "t", Retry: RetryConfig{MaxAttempts: 1, Multiplier: 1}})
	require.NoError(t, err)

	results, err := client.Batch(context.Background(), []BatchItem{
		{Key: "a", Request: &Request{Method: http.MethodGet, Path: "pipes/first"}},
		{Key: "b", Request: &Request{Method: http.MethodGet, Path: "pipes/missing"}},
		{Key: "c", Request: &Request{Method: http.MethodGet, Path: "pipes/third"}},
	}, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results["a"].Err)
	assert.JSONEq(t, `{"name":"first"}`, string(results["a"].Body))
	assert.True(t, errors.Is(results["b"].Err, apierrors.ErrNotFound))
	assert.Nil(t, results["b"].Body)
	assert.NoError(t, results["c"].Err)
	assert.JSONEq(t, `{"name":"third"}`, string(results["c"].Body))
}

func TestBatch_DuplicateKeys(t *testing.T) {
	transport := &fakeTransport{results: []fakeResult{status(200, `{}`)}}
	client, _ := newTestClient(t, transport, DefaultRetryConfig())

	_, err := client.Batch(context.Background(), []BatchItem{
		{Key: "a", Request: &Request{Method: http.MethodGet, Path: "x"}},
		{Key: "a", Request: &Request{Method: http.MethodGet, Path: "y"}},
	}, 1)
	assert.ErrorIs(t, err, apierrors.ErrValidation)
	assert.Equal(t, 0, transport.calls())
}

func TestBatch_RespectsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	transport := TransportFunc(func(ctx context.Context, req *TransportRequest) (*Response, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		return &Response{StatusCode: 200, Body: []byte(`{}`)}, nil
	})
	client, _ := newTestClient(t, transport, DefaultRetryConfig())

	items := make([]BatchItem, 0, 20)
	for _, key := range strings.Split("abcdefghijklmnopqrst", "") {
		items = append(items, BatchItem{Key: key, Request: &Request{Method: http.MethodGet, Path: "pipes"}})
	}

	results, err := client.Batch(context.Background(), items, 1)
	require.NoError(t, err)
	assert.Len(t, results, 20)
	assert.Equal(t, int32(1), peak.Load())
}

func TestBatch_Empty(t *testing.T) {
	transport := &fakeTransport{results: []fakeResult{status(200, `{}`)}}
	client, _ := newTestClient(t, transport, DefaultRetryConfig())

	results, err := client.Batch(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}
