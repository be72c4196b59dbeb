package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LedgerWrites    *prometheus.CounterVec
	RecordsAnchored *prometheus.CounterVec
	ConsentAccepts  prometheus.Counter
}

// New creates and registers all metrics on the given registerer. Tests pass a
// fresh registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LedgerWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pawsport_ledger_writes_total",
			Help: "Ledger write attempts by operation and outcome",
		}, []string{"op", "outcome"}),
		RecordsAnchored: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pawsport_records_anchored_total",
			Help: "Records anchored on the ledger by kind",
		}, []string{"kind"}),
		ConsentAccepts: factory.NewCounter(prometheus.CounterOpts{
			Name: "pawsport_consent_accepts_total",
			Help: "Consent requests accepted",
		}),
	}
}

// ObserveLedgerWrite records a write attempt outcome: "ok", "unavailable" or
// "rejected".
func (m *Metrics) ObserveLedgerWrite(op, outcome string) {
	m.LedgerWrites.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) IncRecordsAnchored(kind string) {
	m.RecordsAnchored.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncConsentAccepts() {
	m.ConsentAccepts.Inc()
}
