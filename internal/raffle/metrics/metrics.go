package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the raffle module.
type Metrics struct {
	RegistrationsTotal prometheus.Counter

	// Draws by trigger ("operator" or "schedule"); redraws carry the same
	// labels, the draw number tells them apart in the audit trail.
	DrawsTotal *prometheus.CounterVec

	// Confirmations by method ("code" or "operator").
	ConfirmationsTotal *prometheus.CounterVec

	ConfirmationTimeoutsTotal prometheus.Counter
	ReopensTotal              prometheus.Counter

	DrawDuration prometheus.Histogram
}

// New creates a new Metrics instance with all raffle module metrics registered.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tombola_registrations_total",
			Help: "Total number of participants registered",
		}),
		DrawsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tombola_draws_total",
			Help: "Total number of draws performed, by trigger",
		}, []string{"trigger"}),
		ConfirmationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tombola_confirmations_total",
			Help: "Total number of winner confirmations, by method",
		}, []string{"method"}),
		ConfirmationTimeoutsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tombola_confirmation_timeouts_total",
			Help: "Total number of automatic redraws after a confirmation timeout",
		}),
		ReopensTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tombola_reopens_total",
			Help: "Total number of raffles reopened from scratch",
		}),
		DrawDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tombola_draw_duration_seconds",
			Help:    "Duration of draw operations including the store transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRegistrations records a successful registration.
func (m *Metrics) IncrementRegistrations() {
	m.RegistrationsTotal.Inc()
}

// IncrementDraws records a successful draw with its trigger.
func (m *Metrics) IncrementDraws(trigger string) {
	m.DrawsTotal.WithLabelValues(trigger).Inc()
}

// IncrementConfirmations records a successful confirmation with its method.
func (m *Metrics) IncrementConfirmations(method string) {
	m.ConfirmationsTotal.WithLabelValues(method).Inc()
}

// IncrementConfirmationTimeouts records a scheduler-triggered redraw.
func (m *Metrics) IncrementConfirmationTimeouts() {
	m.ConfirmationTimeoutsTotal.Inc()
}

// IncrementReopens records a reopen.
func (m *Metrics) IncrementReopens() {
	m.ReopensTotal.Inc()
}

// ObserveDraw records the duration of a draw operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveDraw(start time.Time) {
	m.DrawDuration.Observe(time.Since(start).Seconds())
}
