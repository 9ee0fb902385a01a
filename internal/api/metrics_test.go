package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsAttemptsAndRetries(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	transport := &fakeTransport{results: []fakeResult{status(503, ""), status(200, `{}`)}}
	client, err := NewClient(Config{Token: "t", Transport: transport, Metrics: metrics})
	require.NoError(t, err)
	client.sleep = func(ctx context.Context, _ time.Duration) error { return nil }

	_, err = client.Request(context.Background(), &Request{Method: http.MethodGet, Path: "pipes/top.json"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("GET", "pipes", "503")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("GET", "pipes", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RetriesTotal.WithLabelValues("pipes", "Service Unavailable")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.RequestDuration))
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	assert.Same(t, first.RequestsTotal, second.RequestsTotal)
	assert.Same(t, first.RetriesTotal, second.RetriesTotal)
	assert.Same(t, first.RequestDuration, second.RequestDuration)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.observeAttempt("GET", "pipes", 200)
	m.observeRetry("pipes", "transport")
	m.observeDuration("GET", "pipes", 0)
}

func TestEndpointLabel(t *testing.T) {
	tests := map[string]string{
		"pipes/top.json":       "pipes",
		"/sql":                 "sql",
		"sql?q=1":              "sql",
		"events":               "events",
		"datasources.json":     "datasources",
		"":                     "root",
		"//tokens/abc/refresh": "tokens",
	}
	for in, want := range tests {
		assert.Equal(t, want, endpointLabel(in), in)
	}
}
