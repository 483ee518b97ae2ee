// Package schedule interprets the "HH:MM" wall-clock strings carried by shifts.
//
// Times are minutes since midnight. "24:00" is accepted as end-of-day (1440).
// A slot whose end is "24:00" or not after its start crosses midnight.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	minutesPerDay = 24 * 60
	lateStart     = 23 * 60
)

var ErrBadTime = errors.New("malformed time")

// ParseMinutes parses "H:MM" or "HH:MM" into minutes since midnight.
func ParseMinutes(hhmm string) (int, error) {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok || len(h) < 1 || len(h) > 2 || len(m) != 2 || !digits(h) || !digits(m) {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, hhmm)
	}
	hours, _ := strconv.Atoi(h)
	mins, _ := strconv.Atoi(m)
	if mins > 59 || hours > 24 || (hours == 24 && mins != 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, hhmm)
	}
	return hours*60 + mins, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatMinutes renders minutes since midnight as "HH:MM"; 1440 renders "24:00".
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Slot is a parsed start/end pair.
type Slot struct {
	Start int
	End   int
}

// ParseSlot parses both ends of a slot.
func ParseSlot(start, end string) (Slot, error) {
	s, err := ParseMinutes(start)
	if err != nil {
		return Slot{}, err
	}
	e, err := ParseMinutes(end)
	if err != nil {
		return Slot{}, err
	}
	return Slot{Start: s, End: e}, nil
}

// Overnight reports whether the slot runs past midnight.
func (s Slot) Overnight() bool {
	return s.End >= minutesPerDay || s.End <= s.Start
}

// effectiveEnd is the end minute on the start day's axis.
func (s Slot) effectiveEnd() int {
	if s.End < minutesPerDay && s.End <= s.Start {
		return s.End + minutesPerDay
	}
	return s.End
}

// Contains reports whether minute now falls inside [Start, End). For an
// overnight slot the after-midnight part is matched too.
func (s Slot) Contains(now int) bool {
	end := s.effectiveEnd()
	if now >= s.Start && now < end {
		return true
	}
	if s.Overnight() {
		shifted := now + minutesPerDay
		return shifted >= s.Start && shifted < end
	}
	return false
}

// Late reports a slot that starts at 23:00 or later or crosses midnight.
func (s Slot) Late() bool {
	return s.Start >= lateStart || s.Overnight()
}

// IsActive is Slot.Contains over raw strings; malformed input is never active.
func IsActive(start, end string, now time.Time) bool {
	s, err := ParseSlot(start, end)
	if err != nil {
		return false
	}
	return s.Contains(MinuteOfDay(now))
}

// IsLateSlot is Slot.Late over raw strings; malformed input is never late.
func IsLateSlot(start, end string) bool {
	s, err := ParseSlot(start, end)
	if err != nil {
		return false
	}
	return s.Late()
}

// MinuteOfDay returns the wall-clock minute of t in t's location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Clock returns the current time in the site's zone.
type Clock func() time.Time

// ClockIn builds a Clock for loc.
func ClockIn(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// FixedClock always returns t; used by tests and the CLI.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Week returns the Sunday..Saturday range containing t, both at midnight.
func Week(t time.Time) (time.Time, time.Time) {
	day := StartOfDay(t)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	end := day.AddDate(0, 0, 6-int(day.Weekday()))
	return start, end
}
