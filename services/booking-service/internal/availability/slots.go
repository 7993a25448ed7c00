package availability

import (
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
)

var (
	ErrNotWorkingDay = errors.New("doctor does not work on this day")
	ErrOutsideHours  = errors.New("time is outside working hours")
	ErrMisaligned    = errors.New("time is not on a slot boundary")
)

// FreeSlots returns the ascending slot start times on date that are inside the
// policy window and not in occupied. A day outside WorkingDays yields no slots;
// callers that must tell that apart from a fully booked day check
// policy.WorksOn first.
func FreeSlots(policy model.WorkingHours, date calendar.Date, occupied []calendar.Clock) []calendar.Clock {
	if !policy.WorksOn(date) {
		return nil
	}
	taken := make(map[calendar.Clock]struct{}, len(occupied))
	for _, t := range occupied {
		taken[t] = struct{}{}
	}

	var slots []calendar.Clock
	for s := range calendar.Slots(policy.Start, policy.End, model.SlotDuration) {
		if _, ok := taken[s]; ok {
			continue
		}
		slots = append(slots, s)
	}
	return slots
}

// CheckSlot reports why (date, t) is not a legal slot under policy, or nil.
// Occupancy is not considered here.
func CheckSlot(policy model.WorkingHours, date calendar.Date, t calendar.Clock) error {
	if !policy.WorksOn(date) {
		return fmt.Errorf("%w (%s)", ErrNotWorkingDay, calendar.WeekdayOf(date))
	}
	if t < policy.Start || t.Add(model.SlotDuration) > policy.End {
		return fmt.Errorf("%w (%s-%s)", ErrOutsideHours, policy.Start, policy.End)
	}
	if (t-policy.Start)%calendar.Clock(model.SlotDuration.Minutes()) != 0 {
		return fmt.Errorf("%w (slots start every %d minutes from %s)", ErrMisaligned, int(model.SlotDuration.Minutes()), policy.Start)
	}
	return nil
}
