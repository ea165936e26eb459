package repository

import (
	"database/sql"
	"errors"
	"time"

	apperrors "questbooking/internal/errors"
)

const supportPhoneKey = "support_phone"

type SettingsRepository struct {
	DB *sql.DB
}

func NewSettingsRepository(database *sql.DB) *SettingsRepository {
	return &SettingsRepository{DB: database}
}

// GetSupportPhone returns the stored support phone, or ok=false when it
// has never been saved, in which case the caller falls back to the
// default value.
func (r *SettingsRepository) GetSupportPhone() (string, bool, error) {
	var value string
	err := r.DB.QueryRow(`SELECT value FROM settings WHERE key = $1`, supportPhoneKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, apperrors.Persistence("get support phone", err)
	}
	return value, true, nil
}

// SetSupportPhone upserts the singleton record.
func (r *SettingsRepository) SetSupportPhone(phone string) error {
	_, err := r.DB.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		supportPhoneKey, phone, time.Now().UTC(),
	)
	if err != nil {
		return apperrors.Persistence("set support phone", err)
	}
	return nil
}
