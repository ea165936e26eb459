package entities

import (
	"time"

	"questbooking/internal/db"
)

// BookingResponse is the wire form of a booking.
type BookingResponse struct {
	ID             string    `json:"id"`
	ActivityID     string    `json:"activity_id"`
	Date           string    `json:"date"`
	TimeSlot       string    `json:"time_slot"`
	CustomerName   string    `json:"customer_name"`
	CustomerPhone  string    `json:"customer_phone"`
	AgeRestriction string    `json:"age_restriction,omitempty"`
	PartySize      int       `json:"party_size,omitempty"`
	Prepayment     int       `json:"prepayment,omitempty"`
	FullPayment    int       `json:"full_payment,omitempty"`
	TeaZone        bool      `json:"tea_zone,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Status         string    `json:"status"`
	QuotedPrice    int       `json:"quoted_price,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToBookingResponse maps a stored booking onto the wire form.
// quotedPrice may be zero when the activity has no price rule.
func ToBookingResponse(b *db.Booking, quotedPrice int) BookingResponse {
	return BookingResponse{
		ID:             b.ID,
		ActivityID:     b.ActivityID,
		Date:           b.Date,
		TimeSlot:       b.TimeSlot,
		CustomerName:   b.CustomerName,
		CustomerPhone:  b.CustomerPhone,
		AgeRestriction: b.AgeRestriction,
		PartySize:      b.PartySize,
		Prepayment:     b.Prepayment,
		FullPayment:    b.FullPayment,
		TeaZone:        b.TeaZone,
		Notes:          b.Notes,
		Status:         b.Status,
		QuotedPrice:    quotedPrice,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

// BlockedDateResponse is the wire form of one blocked date.
type BlockedDateResponse struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// AvailabilityResponse answers an availability query. Reason is filled
// only when the slot is unavailable.
type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Date      string `json:"date"`
	TimeSlot  string `json:"time_slot"`
	Reason    string `json:"reason,omitempty"`
}

// ScheduleResponse describes the bookable surface for one day: the slot
// grid, the activity catalog, and the currently blocked dates.
type ScheduleResponse struct {
	Slots        []string              `json:"slots"`
	Activities   []Activity            `json:"activities"`
	BlockedDates []BlockedDateResponse `json:"blocked_dates"`
	SupportPhone string                `json:"support_phone"`
}
