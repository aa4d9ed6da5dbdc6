package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "counsel"

// Oracle names used as label values.
const (
	OracleChat    = "chat"
	OracleSummary = "summary"
	OracleMeeting = "meeting"
)

// Escalation outcomes used as label values.
const (
	EscalationCreated    = "created"
	EscalationSuppressed = "suppressed"
	EscalationFailed     = "failed"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	Messages       prometheus.Counter
	OracleFailures *prometheus.CounterVec
	CrisisMarkers  prometheus.Counter
	Escalations    *prometheus.CounterVec
	Summaries      *prometheus.CounterVec
	LiveSessions   prometheus.GaugeFunc
}

// New registers collectors on a fresh registry. liveSessions is sampled on
// every scrape.
func New(liveSessions func() int) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "User messages processed by the chat pipeline.",
		}),
		OracleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_failures_total",
			Help:      "External calls that failed and were replaced by a fallback.",
		}, []string{"oracle"}),
		CrisisMarkers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crisis_markers_total",
			Help:      "Assistant replies carrying the crisis marker.",
		}),
		Escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Meeting escalations by path and outcome.",
		}, []string{"path", "outcome"}),
		Summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Emotion summaries produced, by risk flag.",
		}, []string{"risk"}),
	}

	if liveSessions == nil {
		liveSessions = func() int { return 0 }
	}
	m.LiveSessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_sessions",
		Help:      "Conversations currently held in memory.",
	}, func() float64 { return float64(liveSessions()) })

	reg.MustRegister(
		m.Messages,
		m.OracleFailures,
		m.CrisisMarkers,
		m.Escalations,
		m.Summaries,
		m.LiveSessions,
		collectors.NewGoCollector(),
	)

	return m
}

// Handler exposes the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveMessage counts one accepted user message.
func (m *Metrics) ObserveMessage() {
	if m != nil {
		m.Messages.Inc()
	}
}

// ObserveOracleFailure counts a failed call to oracle, one of the Oracle* labels.
func (m *Metrics) ObserveOracleFailure(oracle string) {
	if m != nil {
		m.OracleFailures.WithLabelValues(oracle).Inc()
	}
}

func (m *Metrics) ObserveCrisisMarker() {
	if m != nil {
		m.CrisisMarkers.Inc()
	}
}

// ObserveEscalation counts an escalation attempt by path and outcome.
func (m *Metrics) ObserveEscalation(path, outcome string) {
	if m != nil {
		m.Escalations.WithLabelValues(path, outcome).Inc()
	}
}

// ObserveSummary counts a generated summary labeled by its risk flag.
func (m *Metrics) ObserveSummary(risk bool) {
	if m == nil {
		return
	}
	label := "false"
	if risk {
		label = "true"
	}
	m.Summaries.WithLabelValues(label).Inc()
}
