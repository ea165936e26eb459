package service

import (
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "questbooking/internal/errors"
)

// DefaultSupportPhone is shown until an administrator saves another.
const DefaultSupportPhone = "+7 (999) 123-45-67"

// SettingsStore is implemented by repository.SettingsRepository.
type SettingsStore interface {
	GetSupportPhone() (string, bool, error)
	SetSupportPhone(phone string) error
}

// SettingsService owns the support-contact singleton.
type SettingsService struct {
	repo     SettingsStore
	notifier *Notifier
}

func NewSettingsService(repo SettingsStore, notifier *Notifier) *SettingsService {
	return &SettingsService{repo: repo, notifier: notifier}
}

// SupportPhone returns the saved support phone, falling back to the
// default on first read or a failed read.
func (s *SettingsService) SupportPhone() string {
	phone, ok, err := s.repo.GetSupportPhone()
	if err != nil {
		log.Warn().Err(err).Msg("support phone read failed, using default")
		return DefaultSupportPhone
	}
	if !ok || phone == "" {
		return DefaultSupportPhone
	}
	return phone
}

// SetSupportPhone saves the administrator's value and signals listeners
// to refresh.
func (s *SettingsService) SetSupportPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return apperrors.NewHTTPError(400, "support phone cannot be empty")
	}
	if err := s.repo.SetSupportPhone(phone); err != nil {
		return err
	}
	log.Info().Str("phone", phone).Msg("support phone updated")
	s.notifier.Publish(TopicBookingsChanged)
	return nil
}
