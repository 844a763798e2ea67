package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of one runtime instance.
//
// Every recording method is safe to call on a nil *Metrics so components can
// be constructed without monitoring.
type Metrics struct {
	registry *prometheus.Registry

	// Device metrics
	DevicesRegistered *prometheus.GaugeVec

	// Lock metrics
	LockAcquisitions *prometheus.CounterVec

	// Dispatcher metrics
	DispatchTotal      *prometheus.CounterVec
	DispatchConsumed   *prometheus.CounterVec
	DispatchQueueDepth *prometheus.GaugeVec

	// Service metrics
	ServicesRunning    prometheus.Gauge
	ServiceTransitions *prometheus.CounterVec

	// App metrics
	AppTransitions *prometheus.CounterVec
	AppStackDepth  prometheus.Gauge

	// HTTP metrics (development service)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates a new metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		DevicesRegistered: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tactility_devices_registered",
				Help: "Number of registered devices by type",
			},
			[]string{"type"},
		),

		LockAcquisitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tactility_lock_acquisitions_total",
				Help: "Lock acquisition attempts by outcome",
			},
			[]string{"lock", "outcome"},
		),

		DispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tactility_dispatch_total",
				Help: "Dispatch attempts by outcome",
			},
			[]string{"dispatcher", "outcome"},
		),
		DispatchConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tactility_dispatch_consumed_total",
				Help: "Dispatched messages executed by the consumer",
			},
			[]string{"dispatcher"},
		),
		DispatchQueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tactility_dispatch_queue_depth",
				Help: "Messages waiting in a dispatcher queue",
			},
			[]string{"dispatcher"},
		),

		ServicesRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tactility_services_running",
				Help: "Number of running services",
			},
		),
		ServiceTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tactility_service_transitions_total",
				Help: "Service lifecycle transitions",
			},
			[]string{"service", "event"},
		),

		AppTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tactility_app_transitions_total",
				Help: "App lifecycle transitions by target state",
			},
			[]string{"app", "state"},
		),
		AppStackDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tactility_app_stack_depth",
				Help: "Number of apps on the loader stack",
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tactility_http_requests_total",
				Help: "Total number of development API requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tactility_http_request_duration_seconds",
				Help:    "Development API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tactility_ws_connections",
				Help: "Number of active event stream connections",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "tactility_uptime_seconds",
			Help: "Runtime uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)
	reg.MustRegister(collectors.NewGoCollector())

	return m
}

// Registry exposes the underlying registry, e.g. for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetDevices sets the number of registered devices of one type
func (m *Metrics) SetDevices(deviceType string, count int) {
	if m == nil {
		return
	}
	m.DevicesRegistered.WithLabelValues(deviceType).Set(float64(count))
}

// RecordLock records a lock acquisition outcome
func (m *Metrics) RecordLock(name, outcome string) {
	if m == nil {
		return
	}
	m.LockAcquisitions.WithLabelValues(name, outcome).Inc()
}

// RecordDispatch records a dispatch outcome and the resulting queue depth
func (m *Metrics) RecordDispatch(dispatcher, outcome string, depth int) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(dispatcher, outcome).Inc()
	m.DispatchQueueDepth.WithLabelValues(dispatcher).Set(float64(depth))
}

// RecordConsume records an executed message and the remaining queue depth
func (m *Metrics) RecordConsume(dispatcher string, depth int) {
	if m == nil {
		return
	}
	m.DispatchConsumed.WithLabelValues(dispatcher).Inc()
	m.DispatchQueueDepth.WithLabelValues(dispatcher).Set(float64(depth))
}

// RecordServiceTransition records a service lifecycle event
func (m *Metrics) RecordServiceTransition(service, event string) {
	if m == nil {
		return
	}
	m.ServiceTransitions.WithLabelValues(service, event).Inc()
}

// SetServicesRunning sets the number of running services
func (m *Metrics) SetServicesRunning(count int) {
	if m == nil {
		return
	}
	m.ServicesRunning.Set(float64(count))
}

// RecordAppTransition records an app entering a lifecycle state
func (m *Metrics) RecordAppTransition(app, state string) {
	if m == nil {
		return
	}
	m.AppTransitions.WithLabelValues(app, state).Inc()
}

// SetAppStackDepth sets the number of apps on the loader stack
func (m *Metrics) SetAppStackDepth(depth int) {
	if m == nil {
		return
	}
	m.AppStackDepth.Set(float64(depth))
}

// RecordHTTPRequest records a development API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncWSConnections increments event stream connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements event stream connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
