package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Default is the process-wide instance registered with the default
	// Prometheus registerer.
	Default *Metrics
	once    sync.Once
)

// InitDefault initializes Default once and returns it.
func InitDefault() *Metrics {
	once.Do(func() {
		Default = NewMetrics(prometheus.DefaultRegisterer)
	})
	return Default
}

// NewRegistry creates an isolated registry with a fresh Metrics set.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	return reg, NewMetrics(reg)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves a specific registry.
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
