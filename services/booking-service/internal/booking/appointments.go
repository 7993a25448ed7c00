package booking

import (
	"context"
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/md-rashed-zaman/carefinder/libs/auth"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/storage"
)

var languages = []string{"en", "rw", "fr"}

const (
	minReasonLen       = 5
	maxReasonLen       = 500
	maxNotesLen        = 1000
	maxCancelReasonLen = 500
)

type CreateRequest struct {
	DoctorID          string
	FacilityID        string
	Date              calendar.Date
	Time              calendar.Clock
	Reason            string
	Notes             string
	PreferredLanguage string
}

func (r *CreateRequest) normalize() error {
	r.DoctorID = strings.TrimSpace(r.DoctorID)
	r.FacilityID = strings.TrimSpace(r.FacilityID)
	r.Reason = strings.TrimSpace(r.Reason)
	r.Notes = strings.TrimSpace(r.Notes)
	r.PreferredLanguage = strings.TrimSpace(r.PreferredLanguage)

	switch n := utf8.RuneCountInString(r.Reason); {
	case r.DoctorID == "":
		return apperr.Validation("doctorId is required")
	case r.FacilityID == "":
		return apperr.Validation("facilityId is required")
	case r.Date.IsZero():
		return apperr.Validation("appointmentDate is required")
	case !r.Time.Valid():
		return apperr.Validation("appointmentTime must be HH:MM")
	case n < minReasonLen || n > maxReasonLen:
		return apperr.Validation("reason must be between %d and %d characters", minReasonLen, maxReasonLen)
	case utf8.RuneCountInString(r.Notes) > maxNotesLen:
		return apperr.Validation("notes must be at most %d characters", maxNotesLen)
	}
	if r.PreferredLanguage == "" {
		r.PreferredLanguage = languages[0]
	}
	if slices.Contains(languages, r.PreferredLanguage) {
		return nil
	}
	return apperr.Validation("preferredLanguage must be one of en, rw, fr")
}

// Create books a new appointment for actor. The uniqueness check and the
// insert happen in one store write; losing a race yields Conflict.
func (s *Service) Create(ctx context.Context, actor auth.Actor, req CreateRequest) (appt model.Appointment, err error) {
	ctx, span := s.startSpan(ctx, "booking.Create")
	defer func() { endSpan(span, err) }()

	if err := req.normalize(); err != nil {
		return model.Appointment{}, err
	}
	doctor, err := s.doctor(ctx, req.DoctorID)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.activeFacility(ctx, req.FacilityID); err != nil {
		return model.Appointment{}, err
	}
	if doctor.FacilityID != req.FacilityID {
		return model.Appointment{}, apperr.InvalidState("doctor %s does not practice at facility %s", doctor.ID, req.FacilityID)
	}
	if err := s.checkBookable(doctor, req.Date, req.Time); err != nil {
		return model.Appointment{}, err
	}

	now := s.clock()
	appt = model.Appointment{
		ID:                s.newID(),
		PatientID:         actor.ID,
		FacilityID:        req.FacilityID,
		DoctorID:          doctor.ID,
		Date:              req.Date,
		Time:              req.Time,
		DurationMinutes:   int(model.SlotDuration.Minutes()),
		Status:            model.StatusScheduled,
		Reason:            req.Reason,
		Notes:             req.Notes,
		PreferredLanguage: req.PreferredLanguage,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	created, err := s.store.InsertAppointment(sctx, appt)
	switch {
	case errors.Is(err, storage.ErrSlotTaken):
		count(ctx, s.metrics.Conflicts)
		return model.Appointment{}, apperr.Conflict("slot %s %s is already booked for this doctor", req.Date, req.Time)
	case err != nil:
		s.logger.Error("reserve slot", "doctor_id", doctor.ID, "date", req.Date.String(), "time", req.Time.String(), "err", err)
		return model.Appointment{}, storeFailure("reservation", err, true)
	}
	count(ctx, s.metrics.Created)
	s.logger.Info("appointment booked", "appointment_id", created.ID, "doctor_id", created.DoctorID,
		"date", created.Date.String(), "time", created.Time.String())
	return created, nil
}

// Reschedule moves actor's active appointment to a new slot. Moving an
// appointment onto its own slot is a no-op.
func (s *Service) Reschedule(ctx context.Context, actor auth.Actor, id string, date calendar.Date, at calendar.Clock) (appt model.Appointment, err error) {
	ctx, span := s.startSpan(ctx, "booking.Reschedule")
	defer func() { endSpan(span, err) }()

	if date.IsZero() || !at.Valid() {
		return model.Appointment{}, apperr.Validation("appointmentDate and appointmentTime are required")
	}
	current, err := s.owned(ctx, actor, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if !current.Status.IsActive() {
		return model.Appointment{}, apperr.InvalidState("cannot reschedule a %s appointment", current.Status)
	}
	doctor, err := s.doctor(ctx, current.DoctorID)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.checkBookable(doctor, date, at); err != nil {
		return model.Appointment{}, err
	}
	if current.Date == date && current.Time == at {
		return current, nil
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	moved, err := s.store.MoveAppointment(sctx, storage.SlotMove{ID: id, Date: date, Time: at, At: s.clock()})
	switch {
	case errors.Is(err, storage.ErrSlotTaken):
		count(ctx, s.metrics.Conflicts)
		return model.Appointment{}, apperr.Conflict("slot %s %s is already booked for this doctor", date, at)
	case errors.Is(err, storage.ErrStale):
		return model.Appointment{}, apperr.InvalidState("appointment is no longer active")
	case errors.Is(err, storage.ErrNotFound):
		return model.Appointment{}, apperr.NotFound("appointment %s not found", id)
	case err != nil:
		s.logger.Error("move appointment", "appointment_id", id, "err", err)
		return model.Appointment{}, storeFailure("reschedule", err, true)
	}
	count(ctx, s.metrics.Rescheduled)
	s.logger.Info("appointment rescheduled", "appointment_id", id,
		"from", current.Date.String()+" "+current.Time.String(), "to", date.String()+" "+at.String())
	return moved, nil
}

// Cancel releases actor's appointment. It needs at least the configured
// notice before the appointment starts.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id, reason string) (appt model.Appointment, err error) {
	ctx, span := s.startSpan(ctx, "booking.Cancel")
	defer func() { endSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxCancelReasonLen {
		return model.Appointment{}, apperr.Validation("reason must be at most %d characters", maxCancelReasonLen)
	}
	current, err := s.owned(ctx, actor, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if !current.Status.IsActive() {
		return model.Appointment{}, apperr.InvalidState("appointment is already %s", current.Status)
	}
	if hours := calendar.HoursUntil(current.Date, current.Time, s.clock()); hours < s.notice.Hours() {
		return model.Appointment{}, apperr.InvalidState("appointments can only be cancelled at least %.0f hours in advance", s.notice.Hours())
	}

	cancelled, err := s.changeStatus(ctx, storage.StatusChange{
		ID:           id,
		From:         model.ActiveStatuses,
		To:           model.StatusCancelled,
		Date:         current.Date,
		Time:         current.Time,
		CancelReason: reason,
		At:           s.clock(),
	})
	if err != nil {
		return model.Appointment{}, err
	}
	count(ctx, s.metrics.Cancelled)
	s.logger.Info("appointment cancelled", "appointment_id", id)
	return cancelled, nil
}

// MarkStatus lets staff confirm, complete or mark a no-show.
func (s *Service) MarkStatus(ctx context.Context, actor auth.Actor, id string, to model.Status) (appt model.Appointment, err error) {
	ctx, span := s.startSpan(ctx, "booking.MarkStatus")
	defer func() { endSpan(span, err) }()

	if !actor.IsStaff() {
		return model.Appointment{}, apperr.Forbidden("only staff may change appointment status")
	}
	current, err := s.appointment(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if to == model.StatusCancelled || !current.Status.CanTransitionTo(to) {
		return model.Appointment{}, apperr.InvalidState("cannot move appointment from %s to %s", current.Status, to)
	}
	return s.changeStatus(ctx, storage.StatusChange{
		ID:   id,
		From: []model.Status{current.Status},
		To:   to,
		At:   s.clock(),
	})
}

func (s *Service) changeStatus(ctx context.Context, c storage.StatusChange) (model.Appointment, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	appt, err := s.store.ChangeStatus(sctx, c)
	switch {
	case err == nil:
		return appt, nil
	case errors.Is(err, storage.ErrStale):
		return model.Appointment{}, apperr.InvalidState("appointment changed concurrently")
	case errors.Is(err, storage.ErrNotFound):
		return model.Appointment{}, apperr.NotFound("appointment %s not found", c.ID)
	default:
		s.logger.Error("change appointment status", "appointment_id", c.ID, "to", string(c.To), "err", err)
		return model.Appointment{}, storeFailure("status change", err, false)
	}
}

// checkBookable applies the working-hours and future-time rules to a slot.
func (s *Service) checkBookable(doctor model.Doctor, date calendar.Date, at calendar.Clock) error {
	if err := availability.CheckSlot(doctor.WorkingHours, date, at); err != nil {
		return apperr.InvalidState("%s %s is not bookable", date, at).Wrap(err)
	}
	if !calendar.IsFuture(date, at, s.clock()) {
		return apperr.InvalidState("cannot book appointments in the past")
	}
	return nil
}

func (s *Service) doctor(ctx context.Context, id string) (model.Doctor, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	d, err := s.store.GetDoctor(sctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return model.Doctor{}, apperr.NotFound("doctor %s not found", id)
	case err != nil:
		return model.Doctor{}, storeFailure("load doctor", err, false)
	case !d.IsActive:
		return model.Doctor{}, apperr.InvalidState("doctor %s is not available", id)
	}
	return d, nil
}

func (s *Service) activeFacility(ctx context.Context, id string) error {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	f, err := s.store.GetFacility(sctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("facility %s not found", id)
	case err != nil:
		return storeFailure("load facility", err, false)
	case !f.IsActive:
		return apperr.InvalidState("facility %s is not active", id)
	}
	return nil
}

func (s *Service) appointment(ctx context.Context, id string) (model.Appointment, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	appt, err := s.store.GetAppointment(sctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return model.Appointment{}, apperr.NotFound("appointment %s not found", id)
	case err != nil:
		return model.Appointment{}, storeFailure("load appointment", err, false)
	}
	return appt, nil
}

func (s *Service) owned(ctx context.Context, actor auth.Actor, id string) (model.Appointment, error) {
	appt, err := s.appointment(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if appt.PatientID != actor.ID {
		return model.Appointment{}, apperr.Forbidden("access denied to appointment %s", id)
	}
	return appt, nil
}
