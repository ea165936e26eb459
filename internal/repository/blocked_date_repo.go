package repository

import (
	"database/sql"

	"github.com/rs/zerolog/log"

	"questbooking/internal/db"
	apperrors "questbooking/internal/errors"
)

type BlockedDateRepository struct {
	DB *sql.DB
}

func NewBlockedDateRepository(database *sql.DB) *BlockedDateRepository {
	return &BlockedDateRepository{DB: database}
}

// InsertBlockedDate adds a date to the blocked set. Returns false when
// the date was already blocked; ON CONFLICT keeps the call idempotent,
// one row per date no matter how often it is blocked.
func (r *BlockedDateRepository) InsertBlockedDate(bd *db.BlockedDate) (bool, error) {
	result, err := r.DB.Exec(`
		INSERT INTO blocked_dates (date, reason, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (date) DO NOTHING`,
		bd.Date, bd.Reason, bd.CreatedAt,
	)
	if err != nil {
		return false, apperrors.Persistence("insert blocked date", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Persistence("insert blocked date", err)
	}
	return affected > 0, nil
}

// DeleteBlockedDate removes a date from the blocked set; false when the
// date was not blocked to begin with.
func (r *BlockedDateRepository) DeleteBlockedDate(date string) (bool, error) {
	result, err := r.DB.Exec(`DELETE FROM blocked_dates WHERE date = $1`, date)
	if err != nil {
		return false, apperrors.Persistence("delete blocked date", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Persistence("delete blocked date", err)
	}
	return affected > 0, nil
}

// IsDateBlocked reports membership in the blocked set.
func (r *BlockedDateRepository) IsDateBlocked(date string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM blocked_dates WHERE date = $1)`, date).Scan(&exists)
	if err != nil {
		return false, apperrors.Persistence("check blocked date", err)
	}
	return exists, nil
}

// ListBlockedDates returns the full blocked set, oldest date first.
func (r *BlockedDateRepository) ListBlockedDates() ([]db.BlockedDate, error) {
	rows, err := r.DB.Query(`SELECT date, reason, created_at FROM blocked_dates ORDER BY date`)
	if err != nil {
		return nil, apperrors.Persistence("list blocked dates", err)
	}
	defer rows.Close()

	var dates []db.BlockedDate
	for rows.Next() {
		var bd db.BlockedDate
		if err := rows.Scan(&bd.Date, &bd.Reason, &bd.CreatedAt); err != nil {
			log.Warn().Err(err).Msg("skipping malformed blocked date row")
			continue
		}
		dates = append(dates, bd)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Persistence("iterate blocked dates", err)
	}
	return dates, nil
}
