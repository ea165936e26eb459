package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"questbooking/internal/schedule"
)

// DigestService prepares the nightly next-day summary for the venue
// inbox. It only reads through the ledger; it never mutates state.
type DigestService struct {
	ledger *BookingService
	sender *SenderService
	loc    *time.Location
	now    func() time.Time
}

func NewDigestService(ledger *BookingService, sender *SenderService, loc *time.Location) *DigestService {
	if loc == nil {
		loc = time.UTC
	}
	return &DigestService{ledger: ledger, sender: sender, loc: loc, now: time.Now}
}

// SendNextDayDigest emails tomorrow's non-cancelled bookings. Called
// from the cron schedule in main.
func (s *DigestService) SendNextDayDigest() error {
	date := s.now().In(s.loc).AddDate(0, 0, 1).Format(schedule.DateLayout)

	bookings, err := s.ledger.ListBookingsForDate(date, "")
	if err != nil {
		return fmt.Errorf("digest: list bookings for %s: %w", date, err)
	}
	if len(bookings) == 0 {
		log.Info().Str("date", date).Msg("digest: no bookings, skipping email")
		return nil
	}

	if err := s.sender.SendDigestEmail(date, bookings); err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	log.Info().Str("date", date).Int("count", len(bookings)).Msg("digest sent")
	return nil
}
