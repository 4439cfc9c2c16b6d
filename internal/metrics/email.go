package metrics

import "time"

// Reservation outcomes
const (
	OutcomeAccepted      = "accepted"
	OutcomeInvalid       = "invalid"
	OutcomeMisconfigured = "misconfigured"
	OutcomeFailed        = "failed"
)

// ReservationHandled counts one submission with its final outcome.
func ReservationHandled(outcome string) {
	ReservationsTotal.WithLabelValues(outcome).Inc()
}

// EmailSent records a message accepted by the transport.
func EmailSent(kind string, duration time.Duration) {
	EmailsSentTotal.WithLabelValues(kind, "sent").Inc()
	EmailSendDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// EmailFailed records a message the transport rejected or could not deliver.
func EmailFailed(kind string, duration time.Duration) {
	EmailsSentTotal.WithLabelValues(kind, "failed").Inc()
	EmailSendDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
