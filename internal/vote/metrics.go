package vote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks admission outcomes. All methods are nil-safe so tests can
// pass a nil *Metrics without registering collectors.
type Metrics struct {
	admitted      prometheus.Counter
	rejected      *prometheus.CounterVec
	ledgerAppends *prometheus.CounterVec
	ledgerDrift   prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		admitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearvote_votes_admitted_total",
			Help: "Votes that passed every admission gate and were persisted.",
		}),
		rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clearvote_votes_rejected_total",
			Help: "Votes rejected by the admission engine, by reason.",
		}, []string{"reason"}),
		ledgerAppends: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clearvote_ledger_appends_total",
			Help: "Ledger append attempts during vote admission, by outcome.",
		}, []string{"outcome"}),
		ledgerDrift: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearvote_ledger_drift_total",
			Help: "Casts where the ledger reported a duplicate the database did not have.",
		}),
	}
}

func (m *Metrics) VoteAdmitted() {
	if m == nil {
		return
	}
	m.admitted.Inc()
}

func (m *Metrics) VoteRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) LedgerAppend(outcome string) {
	if m == nil {
		return
	}
	m.ledgerAppends.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LedgerDrift() {
	if m == nil {
		return
	}
	m.ledgerDrift.Inc()
}
