package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Notification kinds.
const (
	KindAvailability = "availability"
	KindFailure      = "failure"
)

// Metrics holds the checker and scheduler collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	checks        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	lastRun       prometheus.Gauge
	available     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "room_availability_runs_total",
				Help: "Completed check passes by outcome (found, none, error)",
			},
			[]string{"result"},
		),
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "room_availability_checks_total",
				Help: "Date range page checks by outcome (available, unavailable, error)",
			},
			[]string{"result"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "room_availability_notifications_total",
				Help: "Emails sent by kind (availability, failure) and result (sent, error)",
			},
			[]string{"kind", "result"},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "room_availability_last_run_timestamp_seconds",
				Help: "Unix time of the last completed check pass",
			},
		),
		available: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "room_availability_available_ranges",
				Help: "Date ranges found available in the last successful check pass",
			},
		),
	}

	reg.MustRegister(m.runs, m.checks, m.notifications, m.lastRun, m.available)
	return m
}

// ObserveCheck records one date range check.
func (m *Metrics) ObserveCheck(found bool, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.checks.WithLabelValues("error").Inc()
	case found:
		m.checks.WithLabelValues("available").Inc()
	default:
		m.checks.WithLabelValues("unavailable").Inc()
	}
}

// ObserveRun records the end of a check pass.
func (m *Metrics) ObserveRun(available int, err error) {
	if m == nil {
		return
	}
	m.lastRun.SetToCurrentTime()
	switch {
	case err != nil:
		m.runs.WithLabelValues("error").Inc()
		return
	case available > 0:
		m.runs.WithLabelValues("found").Inc()
	default:
		m.runs.WithLabelValues("none").Inc()
	}
	m.available.Set(float64(available))
}

// ObserveNotification records one email attempt.
func (m *Metrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "error"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}
