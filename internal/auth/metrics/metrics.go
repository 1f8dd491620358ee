package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the auth module.
type Metrics struct {
	LoginsSucceeded prometheus.Counter
	LoginsFailed    prometheus.Counter
	UsersCreated    prometheus.Counter
}

// New creates a Metrics instance with all auth module metrics registered.
func New() *Metrics {
	return &Metrics{
		LoginsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hrportal_logins_succeeded_total",
			Help: "Total number of successful logins",
		}),
		LoginsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hrportal_logins_failed_total",
			Help: "Total number of failed login attempts",
		}),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hrportal_users_created_total",
			Help: "Total number of users created",
		}),
	}
}

func (m *Metrics) IncrementLoginSucceeded() {
	if m != nil {
		m.LoginsSucceeded.Inc()
	}
}

func (m *Metrics) IncrementLoginFailed() {
	if m != nil {
		m.LoginsFailed.Inc()
	}
}

func (m *Metrics) IncrementUserCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}
