package model

import (
	"fmt"
	"slices"

	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/geo"
)

// WorkingHours is a doctor's recurring weekly availability window.
// WorkingDays holds normalized weekday names as returned by calendar.WeekdayOf.
type WorkingHours struct {
	Start       calendar.Clock
	End         calendar.Clock
	WorkingDays []string
}

// DefaultWorkingHours applies to doctors without an explicit policy.
func DefaultWorkingHours() WorkingHours {
	return WorkingHours{
		Start:       calendar.NewClock(8, 0),
		End:         calendar.NewClock(17, 0),
		WorkingDays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
	}
}

// NewWorkingHours builds a policy from stored values, normalizing weekday
// spellings such as "Mon" or "MONDAY". Unknown day names are rejected.
func NewWorkingHours(start, end calendar.Clock, days []string) (WorkingHours, error) {
	if !start.Valid() || !end.Valid() || start >= end {
		return WorkingHours{}, fmt.Errorf("working hours %s-%s: start must precede end", start, end)
	}
	w := WorkingHours{Start: start, End: end, WorkingDays: make([]string, 0, len(days))}
	for _, day := range days {
		name, ok := calendar.NormalizeWeekday(day)
		if !ok {
			return WorkingHours{}, fmt.Errorf("unknown working day %q", day)
		}
		if !slices.Contains(w.WorkingDays, name) {
			w.WorkingDays = append(w.WorkingDays, name)
		}
	}
	return w, nil
}

func (w WorkingHours) WorksOn(d calendar.Date) bool {
	return slices.Contains(w.WorkingDays, calendar.WeekdayOf(d))
}

type Doctor struct {
	ID           string
	FacilityID   string
	Name         string
	Specialty    string
	IsActive     bool
	WorkingHours WorkingHours
}

const (
	FacilityHospital   = "hospital"
	FacilityClinic     = "clinic"
	FacilityPharmacy   = "pharmacy"
	FacilityLaboratory = "laboratory"
)

func ValidFacilityType(t string) bool {
	switch t {
	case FacilityHospital, FacilityClinic, FacilityPharmacy, FacilityLaboratory:
		return true
	}
	return false
}

type Facility struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Specialties []string  `json:"specialties,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Location    geo.Point `json:"location"`
	IsActive    bool      `json:"isActive"`
}
