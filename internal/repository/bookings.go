package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"afisha/internal/database"
	apperrors "afisha/internal/errors"
	"afisha/internal/models"

	"github.com/shopspring/decimal"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, reference, user_id, event_id, status, payment_status, payment_method,
	       total_amount, currency, attendee_name, attendee_email, attendee_phone,
	       special_requirements, check_in_status, check_in_time, notes, created_at, updated_at`

// Create persists the booking, its ticket lines and the event's revenue counter
// increments in a single database transaction, so a booking row can never exist
// without its revenue being counted, and vice versa.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking, platformShare, organizerShare decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bookings (reference, user_id, event_id, status, payment_status, payment_method,
		                      total_amount, currency, attendee_name, attendee_email, attendee_phone,
		                      special_requirements, check_in_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		booking.Reference,
		booking.UserID,
		booking.EventID,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentMethod,
		booking.TotalAmount,
		booking.Currency,
		booking.AttendeeName,
		booking.AttendeeEmail,
		booking.AttendeePhone,
		booking.SpecialRequirements,
		booking.CheckInStatus,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return err
	}

	for _, line := range booking.Tickets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO booking_tickets (booking_id, tier_name, unit_price, quantity, line_total)
			VALUES ($1, $2, $3, $4, $5)`,
			booking.ID, line.TierName, line.UnitPrice, line.Quantity, line.LineTotal)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE events
		SET revenue_total = revenue_total + $1,
		    revenue_platform = revenue_platform + $2,
		    revenue_organizer = revenue_organizer + $3,
		    tickets_sold = tickets_sold + $4,
		    updated_at = NOW()
		WHERE id = $5`,
		booking.TotalAmount, platformShare, organizerShare, booking.TotalTickets(), booking.EventID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(scanTargets(booking)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	booking.Tickets, err = r.getLines(ctx, booking.ID)
	return booking, err
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, status string, page, pageSize int) ([]models.Booking, int, error) {
	return r.list(ctx, "user_id", userID, status, page, pageSize)
}

func (r *BookingRepository) ListByEvent(ctx context.Context, eventID int64, status string, page, pageSize int) ([]models.Booking, int, error) {
	return r.list(ctx, "event_id", eventID, status, page, pageSize)
}

func (r *BookingRepository) list(ctx context.Context, column string, id int64, status string, page, pageSize int) ([]models.Booking, int, error) {
	args := []interface{}{id}
	argIndex := 2

	countQuery := `SELECT COUNT(*) FROM bookings WHERE ` + column + ` = $1`
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + column + ` = $1`

	if status != "" {
		filter := fmt.Sprintf(" AND status = $%d", argIndex)
		countQuery += filter
		query += filter
		args = append(args, status)
		argIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		if err := rows.Scan(scanTargets(&booking)...); err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range bookings {
		bookings[i].Tickets, err = r.getLines(ctx, bookings[i].ID)
		if err != nil {
			return nil, 0, err
		}
	}

	return bookings, total, nil
}

// Cancel updates the booking row and decrements the event's revenue counters by
// the original booked amounts in a single database transaction. Revenue tracking
// reflects net bookings, not net cash movement, so the decrement uses the full
// original shares even though the wallet refund is partial.
func (r *BookingRepository) Cancel(ctx context.Context, booking *models.Booking, platformShare, organizerShare decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Conditional update: two racing cancels would otherwise both decrement the
	// revenue counters and both trigger a refund
	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, payment_status = $2, notes = $3, updated_at = NOW()
		WHERE id = $4 AND status NOT IN ($5, $6)`,
		booking.Status, booking.PaymentStatus, booking.Notes, booking.ID,
		models.BookingCancelled, models.BookingRefunded)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrAlreadyCancelled
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE events
		SET revenue_total = revenue_total - $1,
		    revenue_platform = revenue_platform - $2,
		    revenue_organizer = revenue_organizer - $3,
		    tickets_sold = tickets_sold - $4,
		    updated_at = NOW()
		WHERE id = $5`,
		booking.TotalAmount, platformShare, organizerShare, booking.TotalTickets(), booking.EventID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, booking *models.Booking) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, payment_status = $2, updated_at = NOW()
		WHERE id = $3`,
		booking.Status, booking.PaymentStatus, booking.ID)
	return err
}

func (r *BookingRepository) CheckIn(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET check_in_status = $1, check_in_time = $2, updated_at = NOW()
		WHERE id = $3`,
		models.CheckInDone, at, id)
	return err
}

func (r *BookingRepository) getLines(ctx context.Context, bookingID int64) ([]models.TicketLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tier_name, unit_price, quantity, line_total
		FROM booking_tickets
		WHERE booking_id = $1
		ORDER BY id ASC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.TicketLine
	for rows.Next() {
		var line models.TicketLine
		if err := rows.Scan(&line.TierName, &line.UnitPrice, &line.Quantity, &line.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func scanTargets(b *models.Booking) []interface{} {
	return []interface{}{
		&b.ID,
		&b.Reference,
		&b.UserID,
		&b.EventID,
		&b.Status,
		&b.PaymentStatus,
		&b.PaymentMethod,
		&b.TotalAmount,
		&b.Currency,
		&b.AttendeeName,
		&b.AttendeeEmail,
		&b.AttendeePhone,
		&b.SpecialRequirements,
		&b.CheckInStatus,
		&b.CheckInTime,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
}
