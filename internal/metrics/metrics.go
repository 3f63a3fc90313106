// Package metrics holds the Prometheus collectors for binding outcomes and
// HTTP traffic. Collectors live on a dedicated registry, not the default one.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Binding outcomes.
const (
	OutcomeBound   = "bound"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Metrics groups the collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	BindingsTotal *prometheus.CounterVec
	BoundServices prometheus.Gauge
	HTTPRequests  *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		BindingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cloud_bindings_binding_attempts_total",
			Help: "Service binding attempts by service and outcome",
		}, []string{"service", "outcome"}),
		BoundServices: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cloud_bindings_bound_services",
			Help: "Number of service clients currently registered",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cloud_bindings_http_requests_total",
			Help: "HTTP requests served by method and status code",
		}, []string{"method", "status"}),
	}
}

// ObserveBinding records the outcome of one factory call.
func (m *Metrics) ObserveBinding(service, outcome string) {
	if m == nil {
		return
	}
	m.BindingsTotal.WithLabelValues(service, outcome).Inc()
}

// SetBound updates the number of registered clients.
func (m *Metrics) SetBound(n int) {
	if m == nil {
		return
	}
	m.BoundServices.Set(float64(n))
}

// ObserveRequest counts one served HTTP request.
func (m *Metrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
