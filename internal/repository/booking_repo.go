package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"questbooking/internal/db"
	apperrors "questbooking/internal/errors"
)

// uniqueViolation is the Postgres error code raised by the partial
// unique index bookings_active_slot_idx on (date, time_slot) WHERE
// status <> 'cancelled'. It backs the venue-wide exclusivity invariant
// at the storage layer, so a lost-update race between check and write
// still cannot produce double occupancy.
const uniqueViolation = "23505"

const bookingColumns = `id, activity_id, date, time_slot, customer_name, customer_phone,
	age_restriction, party_size, prepayment, full_payment, tea_zone, notes, status,
	created_at, updated_at`

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

func scanBooking(row interface{ Scan(...any) error }) (*db.Booking, error) {
	var b db.Booking
	err := row.Scan(
		&b.ID, &b.ActivityID, &b.Date, &b.TimeSlot, &b.CustomerName, &b.CustomerPhone,
		&b.AgeRestriction, &b.PartySize, &b.Prepayment, &b.FullPayment, &b.TeaZone, &b.Notes,
		&b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertBooking persists a new booking. A concurrent writer that claimed
// the same slot first surfaces as SlotUnavailableError via the unique
// index, never as a silent overwrite.
func (r *BookingRepository) InsertBooking(b *db.Booking) error {
	query := `
		INSERT INTO bookings
		(id, activity_id, date, time_slot, customer_name, customer_phone,
		 age_restriction, party_size, prepayment, full_payment, tea_zone, notes, status,
		 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.DB.Exec(query,
		b.ID, b.ActivityID, b.Date, b.TimeSlot, b.CustomerName, b.CustomerPhone,
		b.AgeRestriction, b.PartySize, b.Prepayment, b.FullPayment, b.TeaZone, b.Notes,
		b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.SlotUnavailable(b.Date, b.TimeSlot, apperrors.ReasonSlotOccupied)
		}
		return apperrors.Persistence("insert booking", err)
	}
	return nil
}

// UpdateBooking writes every mutable field of b back to the store.
func (r *BookingRepository) UpdateBooking(b *db.Booking) error {
	query := `
		UPDATE bookings SET
			activity_id = $2, date = $3, time_slot = $4, customer_name = $5,
			customer_phone = $6, age_restriction = $7, party_size = $8, prepayment = $9,
			full_payment = $10, tea_zone = $11, notes = $12, status = $13, updated_at = $14
		WHERE id = $1`
	result, err := r.DB.Exec(query,
		b.ID, b.ActivityID, b.Date, b.TimeSlot, b.CustomerName, b.CustomerPhone,
		b.AgeRestriction, b.PartySize, b.Prepayment, b.FullPayment, b.TeaZone, b.Notes,
		b.Status, b.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.SlotUnavailable(b.Date, b.TimeSlot, apperrors.ReasonSlotOccupied)
		}
		return apperrors.Persistence("update booking", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetBookingByID returns apperrors.ErrNotFound when no row matches.
func (r *BookingRepository) GetBookingByID(id string) (*db.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	b, err := scanBooking(r.DB.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Persistence("get booking", err)
	}
	return b, nil
}

// DeleteBooking hard-removes a record; returns ErrNotFound when absent.
func (r *BookingRepository) DeleteBooking(id string) error {
	result, err := r.DB.Exec(`DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return apperrors.Persistence("delete booking", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CountActiveAt counts non-cancelled bookings occupying (date, slot) for
// any activity, optionally excluding one booking id (used when a patch
// moves a booking so its own occupancy does not conflict with itself).
func (r *BookingRepository) CountActiveAt(date, timeSlot, excludeID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE date = $1 AND time_slot = $2 AND status <> $3`
	args := []interface{}{date, timeSlot, db.StatusCancelled}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var count int
	if err := r.DB.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, apperrors.Persistence("count slot occupancy", err)
	}
	return count, nil
}

// ListBookingsForDate returns non-cancelled bookings for the date,
// optionally filtered by activity. Slot-ascending ordering is applied by
// the caller, which owns the slot grid.
func (r *BookingRepository) ListBookingsForDate(date, activityID string) ([]db.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE date = $1 AND status <> $2`, bookingColumns)
	args := []interface{}{date, db.StatusCancelled}
	if activityID != "" {
		query += " AND activity_id = $3"
		args = append(args, activityID)
	}
	query += " ORDER BY time_slot"
	return r.listBookings(query, args...)
}

// ListBookings serves the admin table with optional filters; built the
// same incremental-WHERE way as the date listing.
func (r *BookingRepository) ListBookings(date, activityID, status string) ([]db.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE 1=1`, bookingColumns)
	args := []interface{}{}
	idx := 1

	if date != "" {
		query += " AND date = $" + strconv.Itoa(idx)
		args = append(args, date)
		idx++
	}
	if activityID != "" {
		query += " AND activity_id = $" + strconv.Itoa(idx)
		args = append(args, activityID)
		idx++
	}
	if status != "" {
		query += " AND status = $" + strconv.Itoa(idx)
		args = append(args, status)
		idx++
	}
	query += " ORDER BY date DESC, time_slot"
	return r.listBookings(query, args...)
}

func (r *BookingRepository) listBookings(query string, args ...interface{}) ([]db.Booking, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, apperrors.Persistence("list bookings", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			// A malformed row must not take the whole read path down.
			log.Warn().Err(err).Msg("skipping malformed booking row")
			continue
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Persistence("iterate bookings", err)
	}
	return bookings, nil
}
