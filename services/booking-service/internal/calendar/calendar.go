// Package calendar holds the date and wall-clock value types used for
// scheduling. All functions are pure; the single system time zone is carried
// by the "now" argument.
package calendar

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Compare(o Date) int {
	return d.In(time.UTC).Compare(o.In(time.UTC))
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clock is a local wall-clock value at minute resolution, stored as minutes
// after midnight.
type Clock int

const minutesPerDay = 24 * 60

func NewClock(hour, minute int) Clock { return Clock(hour*60 + minute) }

// ParseClock accepts 24h "H:MM" or "HH:MM".
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) < 1 || len(h) > 2 || len(m) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	if strings.ContainsFunc(h+m, func(r rune) bool { return r < '0' || r > '9' }) {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hour, err1 := strconv.Atoi(h)
	minute, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return NewClock(hour, minute), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Valid reports whether c falls within a single day.
func (c Clock) Valid() bool { return c >= 0 && c < minutesPerDay }

func (c Clock) Add(d time.Duration) Clock { return c + Clock(d/time.Minute) }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// At combines d and c into an instant in loc.
func At(d Date, c Clock, loc *time.Location) time.Time {
	return d.In(loc).Add(time.Duration(c) * time.Minute)
}

// IsFuture reports whether (d, c), read in now's location, is strictly after now.
func IsFuture(d Date, c Clock, now time.Time) bool {
	return At(d, c, now.Location()).After(now)
}

// HoursUntil is the signed number of hours from now until (d, c).
func HoursUntil(d Date, c Clock, now time.Time) float64 {
	return At(d, c, now.Location()).Sub(now).Hours()
}

// WeekdayOf returns the lowercase English weekday name of d, e.g. "monday".
// It is computed from the proleptic Gregorian calendar and does not depend on
// any locale or zone.
func WeekdayOf(d Date) string {
	return strings.ToLower(d.In(time.UTC).Weekday().String())
}

var weekdayNames = map[string]string{
	"sunday": "sunday", "sun": "sunday",
	"monday": "monday", "mon": "monday",
	"tuesday": "tuesday", "tue": "tuesday", "tues": "tuesday",
	"wednesday": "wednesday", "wed": "wednesday",
	"thursday": "thursday", "thu": "thursday", "thurs": "thursday",
	"friday": "friday", "fri": "friday",
	"saturday": "saturday", "sat": "saturday",
}

// NormalizeWeekday maps user or stored spellings ("Mon", "MONDAY") to the
// form WeekdayOf returns.
func NormalizeWeekday(s string) (string, bool) {
	name, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	return name, ok
}

// Slots yields slot start times over the half-open window [start, end) in
// steps of width. A slot is yielded only when it ends at or before end.
func Slots(start, end Clock, width time.Duration) iter.Seq[Clock] {
	step := Clock(width / time.Minute)
	return func(yield func(Clock) bool) {
		if step <= 0 {
			return
		}
		for s := start; s+step <= end; s += step {
			if !yield(s) {
				return
			}
		}
	}
}
