package service

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"questbooking/internal/db"
	"questbooking/internal/entities"
	apperrors "questbooking/internal/errors"
	"questbooking/internal/schedule"
)

// BookingStore is the persistence surface the ledger writes bookings
// through. Implemented by repository.BookingRepository.
type BookingStore interface {
	InsertBooking(b *db.Booking) error
	UpdateBooking(b *db.Booking) error
	GetBookingByID(id string) (*db.Booking, error)
	DeleteBooking(id string) error
	CountActiveAt(date, timeSlot, excludeID string) (int, error)
	ListBookingsForDate(date, activityID string) ([]db.Booking, error)
	ListBookings(date, activityID, status string) ([]db.Booking, error)
}

// BlockedDateStore is the blocked-dates persistence surface.
// Implemented by repository.BlockedDateRepository.
type BlockedDateStore interface {
	InsertBlockedDate(bd *db.BlockedDate) (bool, error)
	DeleteBlockedDate(date string) (bool, error)
	IsDateBlocked(date string) (bool, error)
	ListBlockedDates() ([]db.BlockedDate, error)
}

// BookingService is the sole authority on whether a booking may be
// created or modified. Every check-then-write runs under mu, so no
// other mutation can interleave between the availability check and the
// persisted write within this process; the store's unique index covers
// writers outside it.
type BookingService struct {
	mu       sync.Mutex
	bookings BookingStore
	blocked  BlockedDateStore
	schedule *schedule.Schedule
	notifier *Notifier
	sender   *SenderService

	// now is swapped in tests for deterministic lead-time checks.
	now func() time.Time
}

func NewBookingService(bookings BookingStore, blocked BlockedDateStore, sched *schedule.Schedule, notifier *Notifier, sender *SenderService) *BookingService {
	return &BookingService{
		bookings: bookings,
		blocked:  blocked,
		schedule: sched,
		notifier: notifier,
		sender:   sender,
		now:      time.Now,
	}
}

// checkSlotFree applies the three availability rules in order: blocked
// date, lead-time window, venue-wide occupancy. excludeID exempts a
// booking's own occupancy when a patch moves it. Store read failures
// fail open (treated as empty) so a flaky read cannot brick the UI; the
// write path still stops anything the check missed.
func (s *BookingService) checkSlotFree(date, timeSlot, excludeID string) error {
	if !s.schedule.HasSlot(timeSlot) {
		return apperrors.SlotUnavailable(date, timeSlot, apperrors.ReasonUnknownSlot)
	}

	blocked, err := s.blocked.IsDateBlocked(date)
	if err != nil {
		log.Warn().Err(err).Str("date", date).Msg("blocked-date read failed, treating as not blocked")
	} else if blocked {
		return apperrors.SlotUnavailable(date, timeSlot, apperrors.ReasonDateBlocked)
	}

	tooSoon, err := s.schedule.WithinLeadWindow(date, timeSlot, s.now())
	if err != nil {
		return apperrors.SlotUnavailable(date, timeSlot, apperrors.ReasonUnknownSlot)
	}
	if tooSoon {
		return apperrors.SlotUnavailable(date, timeSlot, apperrors.ReasonLeadTime)
	}

	count, err := s.bookings.CountActiveAt(date, timeSlot, excludeID)
	if err != nil {
		log.Warn().Err(err).Str("date", date).Str("slot", timeSlot).Msg("occupancy read failed, treating as empty")
		return nil
	}
	if count > 0 {
		return apperrors.SlotUnavailable(date, timeSlot, apperrors.ReasonSlotOccupied)
	}
	return nil
}

// CheckSlot answers the render-time availability query, returning nil
// when the slot is bookable or the typed refusal when it is not. The
// same rules are re-evaluated at write time, so a nil here is advisory
// only. Occupancy is venue-wide: the activity plays no part in the
// check.
func (s *BookingService) CheckSlot(date, timeSlot, activityID string) error {
	normalized, err := schedule.ParseDate(date)
	if err != nil {
		return apperrors.SlotUnavailable(date, timeSlot, apperrors.ReasonUnknownSlot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkSlotFree(normalized, timeSlot, "")
}

// IsSlotAvailable is the boolean form of CheckSlot.
func (s *BookingService) IsSlotAvailable(date, timeSlot, activityID string) bool {
	return s.CheckSlot(date, timeSlot, activityID) == nil
}

// CreateBooking validates availability at call time and persists the
// booking as one logical step. adminCreated bookings may start
// confirmed; customer bookings always start pending.
func (s *BookingService) CreateBooking(req entities.CreateBookingRequest, adminCreated bool) (*db.Booking, error) {
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.SlotUnavailable(req.Date, req.TimeSlot, apperrors.ReasonUnknownSlot)
	}

	status := db.StatusPending
	if adminCreated && req.Status == db.StatusConfirmed {
		status = db.StatusConfirmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSlotFree(date, req.TimeSlot, ""); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	booking := &db.Booking{
		ID:             uuid.NewString(),
		ActivityID:     req.ActivityID,
		Date:           date,
		TimeSlot:       req.TimeSlot,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		AgeRestriction: req.AgeRestriction,
		PartySize:      req.PartySize,
		Prepayment:     req.Prepayment,
		FullPayment:    req.FullPayment,
		TeaZone:        req.TeaZone,
		Notes:          req.Notes,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.bookings.InsertBooking(booking); err != nil {
		return nil, err
	}

	log.Info().Str("id", booking.ID).Str("date", date).Str("slot", req.TimeSlot).
		Str("activity", req.ActivityID).Str("status", status).Msg("booking created")
	s.notifier.Publish(TopicBookingsChanged)
	return booking, nil
}

// UpdateBooking applies an admin edit. Moving the booking to another
// slot re-runs the availability check with the booking's own occupancy
// excluded; edits that keep the slot apply unconditionally.
func (s *BookingService) UpdateBooking(id string, patch entities.BookingPatch) (*db.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.bookings.GetBookingByID(id)
	if err != nil {
		return nil, err
	}

	updated := *booking
	if patch.ActivityID != nil {
		updated.ActivityID = *patch.ActivityID
	}
	if patch.Date != nil {
		date, err := schedule.ParseDate(*patch.Date)
		if err != nil {
			return nil, apperrors.SlotUnavailable(*patch.Date, updated.TimeSlot, apperrors.ReasonUnknownSlot)
		}
		updated.Date = date
	}
	if patch.TimeSlot != nil {
		updated.TimeSlot = *patch.TimeSlot
	}
	if patch.CustomerName != nil {
		updated.CustomerName = *patch.CustomerName
	}
	if patch.CustomerPhone != nil {
		updated.CustomerPhone = *patch.CustomerPhone
	}
	if patch.AgeRestriction != nil {
		updated.AgeRestriction = *patch.AgeRestriction
	}
	if patch.PartySize != nil {
		updated.PartySize = *patch.PartySize
	}
	if patch.Prepayment != nil {
		updated.Prepayment = *patch.Prepayment
	}
	if patch.FullPayment != nil {
		updated.FullPayment = *patch.FullPayment
	}
	if patch.TeaZone != nil {
		updated.TeaZone = *patch.TeaZone
	}
	if patch.Notes != nil {
		updated.Notes = *patch.Notes
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}

	if patch.MovesSlot() && updated.Occupies() {
		if err := s.checkSlotFree(updated.Date, updated.TimeSlot, id); err != nil {
			return nil, err
		}
	}

	updated.UpdatedAt = s.now().UTC()
	if err := s.bookings.UpdateBooking(&updated); err != nil {
		return nil, err
	}

	log.Info().Str("id", id).Msg("booking updated")
	s.notifier.Publish(TopicBookingsChanged)
	return &updated, nil
}

// ConfirmBooking merges the final administrator-entered details and
// marks the booking confirmed. The slot is unchanged, so availability is
// not re-checked.
func (s *BookingService) ConfirmBooking(id string, fields entities.ConfirmationFields) (*db.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.bookings.GetBookingByID(id)
	if err != nil {
		return nil, err
	}

	if fields.AgeRestriction != "" {
		booking.AgeRestriction = fields.AgeRestriction
	}
	if fields.PartySize > 0 {
		booking.PartySize = fields.PartySize
	}
	if fields.Prepayment > 0 {
		booking.Prepayment = fields.Prepayment
	}
	if fields.FullPayment > 0 {
		booking.FullPayment = fields.FullPayment
	}
	if fields.TeaZone {
		booking.TeaZone = true
	}
	if fields.Notes != "" {
		booking.Notes = fields.Notes
	}
	booking.Status = db.StatusConfirmed
	booking.UpdatedAt = s.now().UTC()

	if err := s.bookings.UpdateBooking(booking); err != nil {
		return nil, err
	}

	log.Info().Str("id", id).Msg("booking confirmed")
	if s.sender != nil {
		s.sender.SendStatusSMS(booking, db.StatusConfirmed)
	}
	s.notifier.Publish(TopicBookingsChanged)
	return booking, nil
}

// CancelBooking marks the booking cancelled, freeing its slot
// immediately. Cancelling an already-cancelled booking is a no-op.
func (s *BookingService) CancelBooking(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.bookings.GetBookingByID(id)
	if err != nil {
		return err
	}
	if booking.Status == db.StatusCancelled {
		return nil
	}

	booking.Status = db.StatusCancelled
	booking.UpdatedAt = s.now().UTC()
	if err := s.bookings.UpdateBooking(booking); err != nil {
		return err
	}

	log.Info().Str("id", id).Msg("booking cancelled")
	if s.sender != nil {
		s.sender.SendStatusSMS(booking, db.StatusCancelled)
	}
	s.notifier.Publish(TopicBookingsChanged)
	return nil
}

// DeleteBooking hard-removes a record from the ledger, admin only.
func (s *BookingService) DeleteBooking(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.bookings.DeleteBooking(id); err != nil {
		return err
	}
	log.Info().Str("id", id).Msg("booking deleted")
	s.notifier.Publish(TopicBookingsChanged)
	return nil
}

// GetBooking fetches one booking by id.
func (s *BookingService) GetBooking(id string) (*db.Booking, error) {
	return s.bookings.GetBookingByID(id)
}

// ListBookingsForDate returns the non-cancelled bookings on a date,
// slot-ascending, optionally filtered by activity. Absence and read
// failures both yield an empty list.
func (s *BookingService) ListBookingsForDate(date, activityID string) ([]db.Booking, error) {
	date, err := schedule.ParseDate(date)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListBookingsForDate(date, activityID)
	if err != nil {
		log.Warn().Err(err).Str("date", date).Msg("booking list read failed, returning empty")
		return []db.Booking{}, nil
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return s.schedule.SlotOrder(bookings[i].TimeSlot) < s.schedule.SlotOrder(bookings[j].TimeSlot)
	})
	return bookings, nil
}

// ListBookings serves the admin table with optional filters.
func (s *BookingService) ListBookings(date, activityID, status string) ([]db.Booking, error) {
	bookings, err := s.bookings.ListBookings(date, activityID, status)
	if err != nil {
		log.Warn().Err(err).Msg("admin booking list read failed, returning empty")
		return []db.Booking{}, nil
	}
	return bookings, nil
}

// BlockDates adds dates to the blocked set. Dates already blocked are
// skipped; the returned count is how many were newly blocked. Existing
// bookings on a blocked date are left for the administrator to resolve.
func (s *BookingService) BlockDates(dates []string, reason string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, raw := range dates {
		date, err := schedule.ParseDate(raw)
		if err != nil {
			return added, err
		}
		inserted, err := s.blocked.InsertBlockedDate(&db.BlockedDate{
			Date:      date,
			Reason:    reason,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return added, err
		}
		if inserted {
			added++
		}
	}

	if added > 0 {
		log.Info().Int("count", added).Str("reason", reason).Msg("dates blocked")
		s.notifier.Publish(TopicBlockedDatesChanged)
	}
	return added, nil
}

// UnblockDate removes a date from the blocked set; false when the date
// was not blocked.
func (s *BookingService) UnblockDate(date string) (bool, error) {
	date, err := schedule.ParseDate(date)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.blocked.DeleteBlockedDate(date)
	if err != nil {
		return false, err
	}
	if removed {
		log.Info().Str("date", date).Msg("date unblocked")
		s.notifier.Publish(TopicBlockedDatesChanged)
	}
	return removed, nil
}

// ListBlockedDates returns the blocked set; read failures fail open to
// an empty set.
func (s *BookingService) ListBlockedDates() ([]db.BlockedDate, error) {
	dates, err := s.blocked.ListBlockedDates()
	if err != nil {
		log.Warn().Err(err).Msg("blocked date list read failed, returning empty")
		return []db.BlockedDate{}, nil
	}
	return dates, nil
}

// Schedule exposes the slot grid to callers that render it.
func (s *BookingService) Schedule() *schedule.Schedule {
	return s.schedule
}

// IsNotFound reports whether err means the referenced record is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
