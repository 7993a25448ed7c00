package availability

import (
	"errors"
	"slices"
	"testing"

	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
)

var monday = calendar.NewDate(2024, 1, 1)

func TestFreeSlots_WeekdayWithOneBooking(t *testing.T) {
	policy := model.DefaultWorkingHours()

	slots := FreeSlots(policy, monday, []calendar.Clock{calendar.NewClock(9, 0)})
	// 08:00..16:30 is 18 starts; one is taken.
	if len(slots) != 17 {
		t.Fatalf("expected 17 slots, got %d", len(slots))
	}
	if slots[0] != calendar.NewClock(8, 0) {
		t.Fatalf("expected first slot 08:00, got %s", slots[0])
	}
	if slots[len(slots)-1] != calendar.NewClock(16, 30) {
		t.Fatalf("expected last slot 16:30, got %s", slots[len(slots)-1])
	}
	if slices.Contains(slots, calendar.NewClock(9, 0)) {
		t.Fatal("09:00 is booked and must not be offered")
	}
}

func TestFreeSlots_NonWorkingDay(t *testing.T) {
	saturday := calendar.NewDate(2024, 1, 6)
	if slots := FreeSlots(model.DefaultWorkingHours(), saturday, nil); len(slots) != 0 {
		t.Fatalf("expected no slots on saturday, got %d", len(slots))
	}
}

func TestFreeSlots_Invariants(t *testing.T) {
	days := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	for startMin := 0; startMin < 24*60; startMin += 45 {
		for span := 0; span <= 10*60; span += 25 {
			endMin := startMin + span
			if endMin > 24*60 {
				continue
			}
			policy := model.WorkingHours{
				Start:       calendar.Clock(startMin),
				End:         calendar.Clock(endMin),
				WorkingDays: days[:startMin%7+1],
			}
			for offset := 0; offset < 7; offset++ {
				date := calendar.NewDate(monday.Year, monday.Month, monday.Day+offset)
				slots := FreeSlots(policy, date, []calendar.Clock{policy.Start.Add(model.SlotDuration)})
				if !policy.WorksOn(date) && len(slots) > 0 {
					t.Fatalf("slots offered on non-working %s", calendar.WeekdayOf(date))
				}
				for i, s := range slots {
					if s < policy.Start || s.Add(model.SlotDuration) > policy.End {
						t.Fatalf("slot %s outside [%s, %s)", s, policy.Start, policy.End)
					}
					if i > 0 && slots[i-1].Add(model.SlotDuration) > s {
						t.Fatalf("slots %s and %s overlap or are out of order", slots[i-1], s)
					}
					if err := CheckSlot(policy, date, s); err != nil {
						t.Fatalf("offered slot %s rejected by CheckSlot: %v", s, err)
					}
				}
			}
		}
	}
}

func TestCheckSlot(t *testing.T) {
	policy := model.DefaultWorkingHours()
	cases := []struct {
		name string
		date calendar.Date
		time calendar.Clock
		want error
	}{
		{"first slot", monday, calendar.NewClock(8, 0), nil},
		{"last slot", monday, calendar.NewClock(16, 30), nil},
		{"sunday", calendar.NewDate(monday.Year, monday.Month, monday.Day+6), calendar.NewClock(9, 0), ErrNotWorkingDay},
		{"before opening", monday, calendar.NewClock(7, 30), ErrOutsideHours},
		{"ends after close", monday, calendar.NewClock(16, 45), ErrOutsideHours},
		{"at close", monday, calendar.NewClock(17, 0), ErrOutsideHours},
		{"off boundary", monday, calendar.NewClock(9, 15), ErrMisaligned},
	}
	for _, tc := range cases {
		err := CheckSlot(policy, tc.date, tc.time)
		if tc.want == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}
