package booking

import (
	"context"

	"github.com/md-rashed-zaman/carefinder/libs/auth"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/storage"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 50
)

// Get returns one appointment. Patients may only read their own; staff may
// read any.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (model.Appointment, error) {
	if actor.IsStaff() {
		return s.appointment(ctx, id)
	}
	return s.owned(ctx, actor, id)
}

// ListFilter narrows List. Nil Page and Limit take the defaults.
type ListFilter struct {
	Status model.Status
	From   calendar.Date
	To     calendar.Date
	Page   *int
	Limit  *int
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalItems int  `json:"totalItems"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type Page struct {
	Items      []model.Appointment
	Pagination Pagination
}

// List returns actor's appointments, newest slot first.
func (s *Service) List(ctx context.Context, actor auth.Actor, f ListFilter) (Page, error) {
	page, limit := 1, DefaultPageLimit
	if f.Page != nil {
		page = *f.Page
	}
	if f.Limit != nil {
		limit = *f.Limit
	}
	switch {
	case page < 1:
		return Page{}, apperr.Validation("page must be at least 1")
	case limit < 1 || limit > MaxPageLimit:
		return Page{}, apperr.Validation("limit must be between 1 and %d", MaxPageLimit)
	case f.Status != "" && !validStatus(f.Status):
		return Page{}, apperr.Validation("unknown status %q", f.Status)
	case !f.From.IsZero() && !f.To.IsZero() && f.From.Compare(f.To) > 0:
		return Page{}, apperr.Validation("start_date must not be after end_date")
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	items, total, err := s.store.ListAppointments(sctx, storage.AppointmentFilter{
		PatientID: actor.ID,
		Status:    f.Status,
		From:      f.From,
		To:        f.To,
		Offset:    (page - 1) * limit,
		Limit:     limit,
	})
	if err != nil {
		return Page{}, storeFailure("list appointments", err, false)
	}
	pages := (total + limit - 1) / limit
	return Page{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: pages,
			HasNext:    page < pages,
			HasPrev:    page > 1,
		},
	}, nil
}

func validStatus(st model.Status) bool {
	_, ok := model.ParseStatus(string(st))
	return ok
}

type Availability struct {
	DoctorID   string           `json:"doctorId"`
	FacilityID string           `json:"facilityId"`
	Date       calendar.Date    `json:"date"`
	WorkingDay bool             `json:"workingDay"`
	Start      calendar.Clock   `json:"workStart"`
	End        calendar.Clock   `json:"workEnd"`
	Slots      []calendar.Clock `json:"availableSlots"`
}

// Availability lists the free slots of a doctor on date. A day the doctor
// never works is reported with WorkingDay false instead of an error.
func (s *Service) Availability(ctx context.Context, doctorID, facilityID string, date calendar.Date) (Availability, error) {
	if doctorID == "" || facilityID == "" || date.IsZero() {
		return Availability{}, apperr.Validation("doctor id, facility_id and date are required")
	}
	doctor, err := s.doctor(ctx, doctorID)
	if err != nil {
		return Availability{}, err
	}
	if facilityID != doctor.FacilityID {
		return Availability{}, apperr.InvalidState("doctor %s does not practice at facility %s", doctorID, facilityID)
	}
	out := Availability{
		DoctorID:   doctor.ID,
		FacilityID: doctor.FacilityID,
		Date:       date,
		WorkingDay: doctor.WorkingHours.WorksOn(date),
		Start:      doctor.WorkingHours.Start,
		End:        doctor.WorkingHours.End,
		Slots:      []calendar.Clock{},
	}
	if !out.WorkingDay {
		return out, nil
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	occupied, err := s.store.OccupiedTimes(sctx, doctor.ID, date)
	if err != nil {
		return Availability{}, storeFailure("load occupied slots", err, false)
	}
	if free := availability.FreeSlots(doctor.WorkingHours, date, occupied); free != nil {
		out.Slots = free
	}
	return out, nil
}
