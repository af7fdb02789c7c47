package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide Prometheus counters that no single feature
// package owns. Methods are nil-safe so tests can pass a nil *Metrics.
type Metrics struct {
	usersRegistered prometheus.Counter
	logins          prometheus.Counter
}

// New creates and registers the counters.
func New() *Metrics {
	return &Metrics{
		usersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearvote_users_registered_total",
			Help: "Total voter accounts created.",
		}),
		logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearvote_logins_total",
			Help: "Total successful logins.",
		}),
	}
}

func (m *Metrics) UserRegistered() {
	if m == nil {
		return
	}
	m.usersRegistered.Inc()
}

func (m *Metrics) LoginSucceeded() {
	if m == nil {
		return
	}
	m.logins.Inc()
}
