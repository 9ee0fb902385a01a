package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by the executor.
// A nil *Metrics records nothing.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RetriesTotal    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the client collectors and registers them with reg.
// Collectors already registered by another client are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinybird_client_requests_total",
				Help: "Total number of HTTP attempts sent to the Tinybird API",
			},
			[]string{"method", "endpoint", "status"},
		),
		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinybird_client_retries_total",
				Help: "Total number of retried Tinybird API attempts",
			},
			[]string{"endpoint", "reason"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tinybird_client_request_duration_seconds",
				Help:    "Duration of a logical Tinybird API call including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}

	var err error
	if m.RequestsTotal, err = register(reg, m.RequestsTotal); err != nil {
		return nil, err
	}
	if m.RetriesTotal, err = register(reg, m.RetriesTotal); err != nil {
		return nil, err
	}
	if m.RequestDuration, err = register(reg, m.RequestDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observeAttempt(method, endpoint string, status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(method, endpoint, label).Inc()
}

func (m *Metrics) observeRetry(endpoint, reason string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabelValues(endpoint, reason).Inc()
}

func (m *Metrics) observeDuration(method, endpoint string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// endpointLabel reduces a request path to its first segment so metric
// cardinality stays bounded: "/pipes/top/data.json" becomes "pipes".
func endpointLabel(path string) string {
	path = strings.TrimLeft(path, "/")
	if i := strings.IndexAny(path, "/?"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSuffix(path, ".json")
	if path == "" {
		return "root"
	}
	return path
}
