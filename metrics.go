package everly

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics instruments the module lifecycle and health aggregation.
type Metrics struct {
	gatherer prometheus.Gatherer

	initDuration   *prometheus.HistogramVec
	moduleState    *prometheus.GaugeVec
	moduleHealthy  *prometheus.GaugeVec
	healthDuration *prometheus.HistogramVec
	aggregate      prometheus.Gauge
}

// NewMetrics creates lifecycle metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		initDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "everly",
			Subsystem: "lifecycle",
			Name:      "module_init_duration_seconds",
			Help:      "Time spent in each module's Init.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"module", "outcome"}),
		moduleState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "everly",
			Subsystem: "lifecycle",
			Name:      "module_state",
			Help:      "Current lifecycle state per module (one-hot over state label).",
		}, []string{"module", "state"}),
		moduleHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "everly",
			Subsystem: "health",
			Name:      "module_healthy",
			Help:      "1 when the module's last health check passed, 0 otherwise.",
		}, []string{"module"}),
		healthDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "everly",
			Subsystem: "health",
			Name:      "check_duration_seconds",
			Help:      "Duration of individual module health checks.",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10},
		}, []string{"module"}),
		aggregate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "everly",
			Subsystem: "health",
			Name:      "aggregate_healthy",
			Help:      "1 when the aggregate status is healthy, 0 when degraded.",
		}),
	}
	reg.MustRegister(m.initDuration, m.moduleState, m.moduleHealthy, m.healthDuration, m.aggregate)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler exposes the metrics over HTTP. It returns nil when the registerer
// passed to NewMetrics cannot gather (custom registries always can).
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil {
		return nil
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveInit records the duration and outcome of one module Init call.
func (m *Metrics) ObserveInit(module string, elapsed time.Duration, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.initDuration.WithLabelValues(module, outcome).Observe(elapsed.Seconds())
}

// SetModuleState flips the one-hot state gauge for a module.
func (m *Metrics) SetModuleState(module string, state ModuleState) {
	for s := StateRegistered; s <= StateStopped; s++ {
		v := 0.0
		if s == state {
			v = 1.0
		}
		m.moduleState.WithLabelValues(module, s.String()).Set(v)
	}
}

// ObserveHealthCheck records one module health check.
func (m *Metrics) ObserveHealthCheck(module string, elapsed time.Duration, healthy bool) {
	m.healthDuration.WithLabelValues(module).Observe(elapsed.Seconds())
	m.SetModuleHealth(module, healthy)
}

// SetModuleHealth updates the per-module health gauge.
func (m *Metrics) SetModuleHealth(module string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	m.moduleHealthy.WithLabelValues(module).Set(v)
}

// SetAggregateStatus updates the aggregate health gauge.
func (m *Metrics) SetAggregateStatus(status Status) {
	v := 0.0
	if status == StatusHealthy {
		v = 1.0
	}
	m.aggregate.Set(v)
}
