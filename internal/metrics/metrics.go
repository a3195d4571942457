package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Number of committed bookings",
		},
	)

	SeatsBooked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_seats_total",
			Help: "Number of seats removed from slot inventory by bookings",
		},
	)

	BookingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_failures_total",
			Help: "Number of rejected or failed booking attempts by reason",
		},
		[]string{"reason"},
	)

	BookingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_commit_duration_seconds",
			Help:    "Time taken to commit a booking transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	PromoValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_validations_total",
			Help: "Number of promo validations by result",
		},
		[]string{"result"},
	)

	EventPublishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_event_publish_failures_total",
			Help: "Number of booking.created events that could not be published",
		},
	)
)

func Register() {
	prometheus.MustRegister(
		BookingsCreated,
		SeatsBooked,
		BookingFailures,
		BookingDuration,
		PromoValidations,
		EventPublishFailures,
	)
}
