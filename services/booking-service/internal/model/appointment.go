package model

import (
	"slices"
	"time"

	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
)

// SlotDuration is the fixed length of every appointment.
const SlotDuration = 30 * time.Minute

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no-show"
)

// ActiveStatuses occupy a slot and take part in SlotKey uniqueness.
var ActiveStatuses = []Status{StatusScheduled, StatusConfirmed}

var transitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	switch st {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return st, true
	}
	return "", false
}

func (s Status) IsActive() bool { return slices.Contains(ActiveStatuses, s) }

func (s Status) IsTerminal() bool {
	_, ok := ParseStatus(string(s))
	return ok && !s.IsActive()
}

func (s Status) CanTransitionTo(to Status) bool {
	return slices.Contains(transitions[s], to)
}

// SlotKey identifies the slot an active appointment occupies.
type SlotKey struct {
	DoctorID string
	Date     calendar.Date
	Time     calendar.Clock
}

type Appointment struct {
	ID                string
	PatientID         string
	FacilityID        string
	DoctorID          string
	Date              calendar.Date
	Time              calendar.Clock
	DurationMinutes   int
	Status            Status
	Reason            string
	Notes             string
	PreferredLanguage string
	CancelReason      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (a Appointment) SlotKey() SlotKey {
	return SlotKey{DoctorID: a.DoctorID, Date: a.Date, Time: a.Time}
}
