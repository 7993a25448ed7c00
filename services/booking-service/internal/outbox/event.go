package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const AggregateAppointment = "appointment"

const (
	EventAppointmentBooked        = "booking.appointment.booked.v1"
	EventAppointmentRescheduled   = "booking.appointment.rescheduled.v1"
	EventAppointmentCancelled     = "booking.appointment.cancelled.v1"
	EventAppointmentStatusChanged = "booking.appointment.status_changed.v1"
)

type AppointmentPayload struct {
	AppointmentID     string    `json:"appointment_id"`
	PatientID         string    `json:"patient_id"`
	DoctorID          string    `json:"doctor_id"`
	FacilityID        string    `json:"facility_id"`
	Date              string    `json:"appointment_date"`
	Time              string    `json:"appointment_time"`
	Status            string    `json:"status"`
	PreferredLanguage string    `json:"preferred_language,omitempty"`
	CancelReason      string    `json:"cancel_reason,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// AppointmentEvent builds the outbox envelope for a state change of appt.
func AppointmentEvent(eventType string, appt model.Appointment) (Event, error) {
	payload, err := json.Marshal(AppointmentPayload{
		AppointmentID:     appt.ID,
		PatientID:         appt.PatientID,
		DoctorID:          appt.DoctorID,
		FacilityID:        appt.FacilityID,
		Date:              appt.Date.String(),
		Time:              appt.Time.String(),
		Status:            string(appt.Status),
		PreferredLanguage: appt.PreferredLanguage,
		CancelReason:      appt.CancelReason,
		OccurredAt:        appt.UpdatedAt.UTC(),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}

// StatusEventType picks the event emitted when an appointment moves to to.
func StatusEventType(to model.Status) string {
	if to == model.StatusCancelled {
		return EventAppointmentCancelled
	}
	return EventAppointmentStatusChanged
}
