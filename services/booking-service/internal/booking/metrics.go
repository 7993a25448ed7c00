package booking

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Created     metric.Int64Counter
	Conflicts   metric.Int64Counter
	Cancelled   metric.Int64Counter
	Rescheduled metric.Int64Counter
}

// NewMetrics registers the booking counters on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/md-rashed-zaman/carefinder/booking")

	created, err := meter.Int64Counter("booking.created",
		metric.WithDescription("Appointments created"))
	if err != nil {
		return nil, err
	}
	conflicts, err := meter.Int64Counter("booking.conflicts",
		metric.WithDescription("Reservations rejected because the slot was already held"))
	if err != nil {
		return nil, err
	}
	cancelled, err := meter.Int64Counter("booking.cancelled",
		metric.WithDescription("Appointments cancelled by patients"))
	if err != nil {
		return nil, err
	}
	rescheduled, err := meter.Int64Counter("booking.rescheduled",
		metric.WithDescription("Appointments moved to a new slot"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		Created:     created,
		Conflicts:   conflicts,
		Cancelled:   cancelled,
		Rescheduled: rescheduled,
	}, nil
}
