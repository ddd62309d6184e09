package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the identity core.
type Metrics struct {
	SessionsPublished   *prometheus.CounterVec
	CredentialsCleared  *prometheus.CounterVec
	VoterAuthOutcomes   *prometheus.CounterVec
	GuardDecisions      *prometheus.CounterVec
	BackendCallDuration *prometheus.HistogramVec
}

// New registers all collectors with reg. Pass prometheus.NewRegistry() in tests so
// repeated construction does not collide on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evoting_sessions_published_total",
			Help: "Session store publishes, by principal kind and whether a principal was present",
		}, []string{"kind", "state"}),
		CredentialsCleared: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evoting_credentials_cleared_total",
			Help: "Credential slots cleared, by principal kind and reason",
		}, []string{"kind", "reason"}),
		VoterAuthOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evoting_voter_auth_outcomes_total",
			Help: "Voter authentication phase outcomes, by phase and error code",
		}, []string{"phase", "outcome"}),
		GuardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evoting_route_guard_decisions_total",
			Help: "Route guard decisions, by principal kind and decision",
		}, []string{"kind", "decision"}),
		BackendCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evoting_backend_call_duration_seconds",
			Help:    "Duration of calls to the election backend",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint", "status"}),
	}
}

func (m *Metrics) IncrementPublished(kind string, present bool) {
	if m == nil {
		return
	}
	state := "empty"
	if present {
		state = "present"
	}
	m.SessionsPublished.WithLabelValues(kind, state).Inc()
}

func (m *Metrics) IncrementCleared(kind, reason string) {
	if m == nil {
		return
	}
	m.CredentialsCleared.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) IncrementVoterAuth(phase, outcome string) {
	if m == nil {
		return
	}
	m.VoterAuthOutcomes.WithLabelValues(phase, outcome).Inc()
}

func (m *Metrics) IncrementGuardDecision(kind, decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(kind, decision).Inc()
}

// ObserveBackendCall records the duration of a backend call.
// Call with time.Now() at the start of the call.
func (m *Metrics) ObserveBackendCall(endpoint, status string, start time.Time) {
	if m == nil {
		return
	}
	m.BackendCallDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
}
