package entities

// CreateBookingRequest is the customer-facing create payload. Admin
// creation reuses it and may additionally set Status and the
// confirmation fields.
type CreateBookingRequest struct {
	ActivityID    string `json:"activity_id" validate:"required"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot      string `json:"time_slot" validate:"required"`
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerPhone string `json:"customer_phone" validate:"required"`

	AgeRestriction string `json:"age_restriction,omitempty"`
	PartySize      int    `json:"party_size,omitempty" validate:"omitempty,min=1"`
	Prepayment     int    `json:"prepayment,omitempty" validate:"omitempty,min=0"`
	FullPayment    int    `json:"full_payment,omitempty" validate:"omitempty,min=0"`
	TeaZone        bool   `json:"tea_zone,omitempty"`
	Notes          string `json:"notes,omitempty"`

	// Status is honored only on the admin route; customer bookings are
	// always created pending.
	Status string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed"`
}

// BookingPatch carries the admin edit form. Nil fields are left as-is.
// Changing Date, TimeSlot, or ActivityID triggers a fresh availability
// check excluding the booking's own occupancy.
type BookingPatch struct {
	ActivityID     *string `json:"activity_id,omitempty"`
	Date           *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TimeSlot       *string `json:"time_slot,omitempty"`
	CustomerName   *string `json:"customer_name,omitempty"`
	CustomerPhone  *string `json:"customer_phone,omitempty"`
	AgeRestriction *string `json:"age_restriction,omitempty"`
	PartySize      *int    `json:"party_size,omitempty" validate:"omitempty,min=1"`
	Prepayment     *int    `json:"prepayment,omitempty" validate:"omitempty,min=0"`
	FullPayment    *int    `json:"full_payment,omitempty" validate:"omitempty,min=0"`
	TeaZone        *bool   `json:"tea_zone,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	Status         *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled"`
}

// MovesSlot reports whether the patch relocates the booking.
func (p *BookingPatch) MovesSlot() bool {
	return p.Date != nil || p.TimeSlot != nil || p.ActivityID != nil
}

// ConfirmationFields are the final details merged when an administrator
// confirms a pending booking.
type ConfirmationFields struct {
	AgeRestriction string `json:"age_restriction,omitempty"`
	PartySize      int    `json:"party_size,omitempty" validate:"omitempty,min=1"`
	Prepayment     int    `json:"prepayment,omitempty" validate:"omitempty,min=0"`
	FullPayment    int    `json:"full_payment,omitempty" validate:"omitempty,min=0"`
	TeaZone        bool   `json:"tea_zone,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// AvailabilityRequest asks whether one slot can still be booked.
type AvailabilityRequest struct {
	ActivityID string `json:"activity_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot   string `json:"time_slot" validate:"required"`
}

// BlockDatesRequest blocks a batch of dates with one shared reason.
type BlockDatesRequest struct {
	Dates  []string `json:"dates" validate:"required,min=1,dive,datetime=2006-01-02"`
	Reason string   `json:"reason" validate:"required"`
}
