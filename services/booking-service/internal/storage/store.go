package storage

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
)

// AppointmentFilter selects a patient's appointments. Zero values mean "any".
type AppointmentFilter struct {
	PatientID string
	Status    model.Status
	From      calendar.Date
	To        calendar.Date
	Offset    int
	Limit     int
}

type FacilityFilter struct {
	Type      string
	Specialty string
}

// StatusChange is a conditional status write: it applies only while the
// appointment is still in one of From. A non-zero Date additionally pins the
// write to the slot (Date, Time) the caller validated against.
type StatusChange struct {
	ID           string
	From         []model.Status
	To           model.Status
	Date         calendar.Date
	Time         calendar.Clock
	CancelReason string
	At           time.Time
}

// SlotMove relocates an active appointment to a new date and time.
type SlotMove struct {
	ID   string
	Date calendar.Date
	Time calendar.Clock
	At   time.Time
}

// Store is the document-store contract the booking core runs against.
//
// InsertAppointment and MoveAppointment must check SlotKey uniqueness among
// active appointments and write in one indivisible step, returning
// ErrSlotTaken when another active appointment holds the key.
type Store interface {
	GetDoctor(ctx context.Context, id string) (model.Doctor, error)
	GetFacility(ctx context.Context, id string) (model.Facility, error)
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	OccupiedTimes(ctx context.Context, doctorID string, date calendar.Date) ([]calendar.Clock, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, int, error)
	InsertAppointment(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	MoveAppointment(ctx context.Context, m SlotMove) (model.Appointment, error)
	ChangeStatus(ctx context.Context, c StatusChange) (model.Appointment, error)
	ActiveFacilities(ctx context.Context, f FacilityFilter) ([]model.Facility, error)
}
