// Package metrics declares the Prometheus collectors of the relay.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Requests counts finished requests on the public listener by status code.
	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "http",
		Name:      "requests_total",
	}, []string{"status"})

	// UpstreamQueryTime observes Workers AI round trips.
	UpstreamQueryTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "relay",
		Subsystem: "upstream",
		Name:      "request_seconds",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	})

	// UpstreamErrors counts failed upstream calls by status code ("0" for transport errors).
	UpstreamErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "upstream",
		Name:      "errors_total",
	}, []string{"err_code"})

	registry = newRegistry()
)

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)
	return reg
}

// RegisterMetrics registers every relay collector on reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Requests)
	reg.MustRegister(UpstreamQueryTime)
	reg.MustRegister(UpstreamErrors)
}

// ObserveRequest counts one finished request.
func ObserveRequest(status int) {
	Requests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveUpstreamError counts one failed upstream call.
func ObserveUpstreamError(status int) {
	UpstreamErrors.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Handler serves the relay registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
