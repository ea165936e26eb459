package db

import "time"

// Booking statuses as stored.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Booking is one reservation of a (date, time slot) pair. Dates are ISO
// calendar strings (YYYY-MM-DD); the venue hosts one activity at a time,
// so a non-cancelled booking occupies its slot for every activity.
type Booking struct {
	ID             string
	ActivityID     string
	Date           string
	TimeSlot       string
	CustomerName   string
	CustomerPhone  string
	AgeRestriction string
	PartySize      int
	Prepayment     int
	FullPayment    int
	TeaZone        bool
	Notes          string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Occupies reports whether the booking holds its slot against new ones.
func (b *Booking) Occupies() bool {
	return b.Status != StatusCancelled
}

// BlockedDate is a calendar date closed to booking entirely.
type BlockedDate struct {
	Date      string
	Reason    string
	CreatedAt time.Time
}
