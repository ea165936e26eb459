package schedule

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar-date representation used
// everywhere in the system. Comparisons are plain string equality, which
// for this layout matches calendar-day identity.
const DateLayout = "2006-01-02"

const slotLayout = "15:04"

// DefaultSlots is the venue's fixed session grid, opening to closing.
var DefaultSlots = []string{
	"12:00", "13:30", "15:00", "16:30", "18:00", "19:30", "21:00", "22:30",
}

// Schedule knows the venue's slot grid and applies the booking
// time-window rule. The zero value is not usable; build with New.
type Schedule struct {
	slots    []string
	leadTime time.Duration
	loc      *time.Location
}

func New(slots []string, leadTime time.Duration, loc *time.Location) *Schedule {
	if len(slots) == 0 {
		slots = DefaultSlots
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Schedule{slots: slots, leadTime: leadTime, loc: loc}
}

// Slots returns the slot labels in ascending order.
func (s *Schedule) Slots() []string {
	out := make([]string, len(s.slots))
	copy(out, s.slots)
	return out
}

// LeadTime returns the configured minimum lead time.
func (s *Schedule) LeadTime() time.Duration { return s.leadTime }

// HasSlot reports whether label is part of the venue's grid.
func (s *Schedule) HasSlot(label string) bool {
	for _, sl := range s.slots {
		if sl == label {
			return true
		}
	}
	return false
}

// ParseDate validates an ISO calendar date and returns it normalized.
func ParseDate(date string) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.Format(DateLayout), nil
}

// SlotInstant resolves date+slot to the wall-clock instant the session
// starts, in the venue's timezone.
func (s *Schedule) SlotInstant(date, slot string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	hm, err := time.Parse(slotLayout, slot)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time slot %q: %w", slot, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hm.Hour(), hm.Minute(), 0, 0, s.loc), nil
}

// WithinLeadWindow reports whether the slot's start is now+leadTime or
// earlier, i.e. too close to book. The boundary itself is unavailable:
// availability requires the start to be strictly later than the cutoff.
// Must be evaluated at write time, never cached from render time.
func (s *Schedule) WithinLeadWindow(date, slot string, now time.Time) (bool, error) {
	start, err := s.SlotInstant(date, slot)
	if err != nil {
		return false, err
	}
	return !start.After(now.Add(s.leadTime)), nil
}

// SlotOrder returns the index of slot within the grid, for ascending
// ordering of listings. Unknown slots sort last.
func (s *Schedule) SlotOrder(slot string) int {
	for i, sl := range s.slots {
		if sl == slot {
			return i
		}
	}
	return len(s.slots)
}
