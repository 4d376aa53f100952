// Package metrics expone las métricas Prometheus del servicio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assetverse/assetverse-api/internal/application/request"
	"github.com/assetverse/assetverse-api/internal/application/role"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
)

const namespace = "assetverse"

var (
	_ request.TransitionObserver = (*Metrics)(nil)
	_ role.Observer              = (*Metrics)(nil)
)

// Metrics colectores del servicio sobre un registro propio (tests sin estado global).
type Metrics struct {
	registry    *prometheus.Registry
	httpTotal   *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

// New crea y registra los colectores.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por método, ruta y código.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de peticiones HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_transitions_total",
			Help:      "Transiciones confirmadas del ciclo de vida de solicitudes.",
		}, []string{"from", "to"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_resolutions_total",
			Help:      "Resoluciones de rol por resultado.",
		}, []string{"role", "defaulted", "cached"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpTotal, m.httpLatency, m.transitions, m.resolutions,
	)
	return m
}

// ObserveHTTP registra una petición atendida.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveTransition implementa request.TransitionObserver.
func (m *Metrics) ObserveTransition(from, to entity.RequestStatus) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// ObserveResolution implementa role.Observer.
func (m *Metrics) ObserveResolution(r entity.Role, defaulted, cached bool) {
	m.resolutions.WithLabelValues(r.String(), strconv.FormatBool(defaulted), strconv.FormatBool(cached)).Inc()
}

// Handler expone el registro en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry para tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
