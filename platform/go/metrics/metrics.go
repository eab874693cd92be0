// Package metrics exposes the reservation engine's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine groups the counters the reservation engine increments.
type Engine struct {
	BookingsGranted       prometheus.Counter
	BookingConflicts      *prometheus.CounterVec // phase: advisory | commit
	BookingsRejected      prometheus.Counter
	Cancellations         prometheus.Counter
	Approvals             *prometheus.CounterVec // outcome: approved | denied
	WaitlistNotifications prometheus.Counter
	NotifyFailures        prometheus.Counter
}

// NewEngine registers the engine counters on the given registerer.
func NewEngine(reg prometheus.Registerer) *Engine {
	factory := promauto.With(reg)
	return &Engine{
		BookingsGranted: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubreserve_bookings_granted_total",
			Help: "Reservations committed successfully.",
		}),
		BookingConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubreserve_booking_conflicts_total",
			Help: "Booking attempts rejected by an overlap, by detection phase.",
		}, []string{"phase"}),
		BookingsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubreserve_bookings_rejected_total",
			Help: "Booking attempts rejected by validation rules.",
		}),
		Cancellations: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubreserve_cancellations_total",
			Help: "Reservations cancelled.",
		}),
		Approvals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubreserve_approvals_total",
			Help: "Approval workflow transitions, by outcome.",
		}, []string{"outcome"}),
		WaitlistNotifications: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubreserve_waitlist_notifications_total",
			Help: "Waitlist members notified after a qualifying cancellation.",
		}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubreserve_notify_failures_total",
			Help: "Notification sends that failed (logged, never surfaced).",
		}),
	}
}

// NewEngineForTest returns counters on a throwaway registry.
func NewEngineForTest() *Engine {
	return NewEngine(prometheus.NewRegistry())
}
