package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for remote calls.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// TurnosMetrics exposes counters/histograms for the appointment UI and its
// calls to the remote collection store.
type TurnosMetrics struct {
	remoteTotal    *prometheus.CounterVec
	remoteLatency  *prometheus.HistogramVec
	actionsTotal   *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

func NewTurnosMetrics(reg prometheus.Registerer) *TurnosMetrics {
	m := &TurnosMetrics{
		remoteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Total requests to the remote appointment collection",
		}, []string{"operation", "outcome"}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turnos",
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests to the remote appointment collection",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "ui",
			Name:      "actions_total",
			Help:      "Form and table actions handled, by action and outcome",
		}, []string{"action", "outcome"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "turnos",
			Subsystem: "ui",
			Name:      "active_sessions",
			Help:      "Browser sessions currently holding appointment state",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.remoteTotal, m.remoteLatency, m.actionsTotal, m.activeSessions)
	return m
}

func (m *TurnosMetrics) ObserveRemote(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	m.remoteTotal.WithLabelValues(operation, outcome(err)).Inc()
	m.remoteLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *TurnosMetrics) ObserveAction(action string, err error) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(action, outcome(err)).Inc()
}

func (m *TurnosMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
