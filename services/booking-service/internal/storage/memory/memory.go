// Package memory is a single-process Store for development and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/storage"
)

type Store struct {
	mu           sync.Mutex
	doctors      map[string]model.Doctor
	facilities   map[string]model.Facility
	appointments map[string]model.Appointment
	// active maps a held SlotKey to the appointment holding it.
	active map[model.SlotKey]string
	events []outbox.Event
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		doctors:      map[string]model.Doctor{},
		facilities:   map[string]model.Facility{},
		appointments: map[string]model.Appointment{},
		active:       map[model.SlotKey]string{},
	}
}

// PutDoctor stores d after normalizing its working hours the way the
// Postgres store does on load.
func (s *Store) PutDoctor(d model.Doctor) error {
	w := d.WorkingHours
	hours, err := model.NewWorkingHours(w.Start, w.End, w.WorkingDays)
	if err != nil {
		return fmt.Errorf("doctor %s: %w", d.ID, err)
	}
	d.WorkingHours = hours
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[d.ID] = d
	return nil
}

func (s *Store) PutFacility(f model.Facility) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facilities[f.ID] = f
}

// Events returns the outbox events recorded so far, oldest first.
func (s *Store) Events() []outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

func (s *Store) GetDoctor(_ context.Context, id string) (model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doctors[id]
	if !ok {
		return model.Doctor{}, storage.ErrNotFound
	}
	return d, nil
}

func (s *Store) GetFacility(_ context.Context, id string) (model.Facility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.facilities[id]
	if !ok {
		return model.Facility{}, storage.ErrNotFound
	}
	return f, nil
}

func (s *Store) ActiveFacilities(ctx context.Context, f storage.FacilityFilter) ([]model.Facility, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Facility
	for _, fac := range s.facilities {
		if !fac.IsActive {
			continue
		}
		if f.Type != "" && fac.Type != f.Type {
			continue
		}
		if f.Specialty != "" && !slices.Contains(fac.Specialties, f.Specialty) {
			continue
		}
		out = append(out, fac)
	}
	slices.SortFunc(out, func(a, b model.Facility) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetAppointment(_ context.Context, id string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	return a, nil
}

func (s *Store) OccupiedTimes(_ context.Context, doctorID string, date calendar.Date) ([]calendar.Clock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []calendar.Clock
	for key := range s.active {
		if key.DoctorID == doctorID && key.Date == date {
			out = append(out, key.Time)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) ListAppointments(_ context.Context, f storage.AppointmentFilter) ([]model.Appointment, int, error) {
	s.mu.Lock()
	var matched []model.Appointment
	for _, a := range s.appointments {
		if a.PatientID != f.PatientID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && a.Date.Compare(f.From) < 0 {
			continue
		}
		if !f.To.IsZero() && a.Date.Compare(f.To) > 0 {
			continue
		}
		matched = append(matched, a)
	}
	s.mu.Unlock()

	slices.SortFunc(matched, func(a, b model.Appointment) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Time, a.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	total := len(matched)
	lo := min(f.Offset, total)
	hi := total
	if f.Limit > 0 {
		hi = min(lo+f.Limit, total)
	}
	return matched[lo:hi], total, nil
}

// InsertAppointment checks and claims the SlotKey under the store lock, so
// concurrent inserts for one key admit exactly one winner.
func (s *Store) InsertAppointment(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if appt.Status.IsActive() {
		if _, held := s.active[appt.SlotKey()]; held {
			return model.Appointment{}, storage.ErrSlotTaken
		}
		s.active[appt.SlotKey()] = appt.ID
	}
	s.appointments[appt.ID] = appt
	s.record(outbox.EventAppointmentBooked, appt)
	return appt, nil
}

func (s *Store) MoveAppointment(_ context.Context, m storage.SlotMove) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[m.ID]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	if !appt.Status.IsActive() {
		return model.Appointment{}, storage.ErrStale
	}
	next := appt
	next.Date, next.Time, next.UpdatedAt = m.Date, m.Time, m.At
	if holder, held := s.active[next.SlotKey()]; held && holder != appt.ID {
		return model.Appointment{}, storage.ErrSlotTaken
	}
	delete(s.active, appt.SlotKey())
	s.active[next.SlotKey()] = next.ID
	s.appointments[next.ID] = next
	s.record(outbox.EventAppointmentRescheduled, next)
	return next, nil
}

func (s *Store) ChangeStatus(_ context.Context, c storage.StatusChange) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[c.ID]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	if !slices.Contains(c.From, appt.Status) {
		return model.Appointment{}, storage.ErrStale
	}
	if !c.Date.IsZero() && (appt.Date != c.Date || appt.Time != c.Time) {
		return model.Appointment{}, storage.ErrStale
	}
	next := appt
	next.Status, next.UpdatedAt = c.To, c.At
	if c.CancelReason != "" {
		next.CancelReason = c.CancelReason
	}
	if appt.Status.IsActive() && !next.Status.IsActive() {
		delete(s.active, appt.SlotKey())
	}
	s.appointments[next.ID] = next
	s.record(outbox.StatusEventType(c.To), next)
	return next, nil
}

func (s *Store) record(eventType string, appt model.Appointment) {
	evt, err := outbox.AppointmentEvent(eventType, appt)
	if err == nil {
		s.events = append(s.events, evt)
	}
}
