package service

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"questbooking/internal/db"
	"questbooking/internal/utils"
)

// SenderService delivers customer SMS on status changes and the admin
// digest email. Delivery failures are logged, never propagated: a
// booking mutation must not fail because a downstream message did.
type SenderService struct{}

func NewSenderService() *SenderService {
	return &SenderService{}
}

// SendStatusSMS tells the customer their booking was confirmed or
// cancelled. Runs the actual send in the background.
func (s *SenderService) SendStatusSMS(b *db.Booking, status string) {
	to := utils.NormalizePhone(b.CustomerPhone)
	if to == "" {
		log.Warn().Str("id", b.ID).Str("phone", b.CustomerPhone).Msg("unusable customer phone, skipping SMS")
		return
	}

	var message string
	switch status {
	case db.StatusConfirmed:
		message = fmt.Sprintf("Your quest booking for %s at %s is confirmed. See you there!", b.Date, b.TimeSlot)
	case db.StatusCancelled:
		message = fmt.Sprintf("Your quest booking for %s at %s has been cancelled.", b.Date, b.TimeSlot)
	default:
		return
	}

	go func() {
		if err := sendSMS(to, message); err != nil {
			log.Error().Err(err).Str("id", b.ID).Str("to", to).Msg("status SMS failed")
		}
	}()
}

// SendDigestEmail mails the venue inbox the list of bookings for date.
func (s *SenderService) SendDigestEmail(date string, bookings []db.Booking) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_FROM_EMAIL")
	toEmail := os.Getenv("DIGEST_TO_EMAIL")
	if apiKey == "" || fromEmail == "" || toEmail == "" {
		return fmt.Errorf("sendgrid digest not configured")
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Bookings for %s:\n\n", date)
	for _, b := range bookings {
		fmt.Fprintf(&body, "%s  %-10s %s (%s)", b.TimeSlot, b.ActivityID, b.CustomerName, b.CustomerPhone)
		if b.PartySize > 0 {
			fmt.Fprintf(&body, ", %d people", b.PartySize)
		}
		if b.TeaZone {
			body.WriteString(", tea zone")
		}
		fmt.Fprintf(&body, " [%s]\n", b.Status)
	}

	from := mail.NewEmail("Quest Booking", fromEmail)
	to := mail.NewEmail("", toEmail)
	subject := fmt.Sprintf("Quest bookings for %s (%d)", date, len(bookings))
	msg := mail.NewSingleEmail(from, subject, to, body.String(), "")

	client := sendgrid.NewSendClient(apiKey)
	resp, err := client.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send digest email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected digest email: status %d", resp.StatusCode)
	}
	return nil
}

func sendSMS(to, message string) error {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_FROM_NUMBER")
	if accountSid == "" || authToken == "" || from == "" {
		return fmt.Errorf("twilio not configured")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(message)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}
