package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"afisha/internal/database"
	apperrors "afisha/internal/errors"
	"afisha/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (title, description, organizer_id, status, starts_at, ends_at, currency, capacity_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		event.Title,
		event.Description,
		event.OrganizerID,
		event.Status,
		event.StartsAt,
		event.EndsAt,
		event.Currency,
		event.CapacityTotal,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range event.Tiers {
		tier := &event.Tiers[i]
		tier.EventID = event.ID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ticket_tiers (event_id, name, price, quantity)
			VALUES ($1, $2, $3, $4)`,
			tier.EventID, tier.Name, tier.Price, tier.Quantity)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, title, description, organizer_id, status, starts_at, ends_at, currency,
		       capacity_total, capacity_sold, revenue_total, revenue_platform,
		       revenue_organizer, tickets_sold, created_at, updated_at
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.OrganizerID,
		&event.Status,
		&event.StartsAt,
		&event.EndsAt,
		&event.Currency,
		&event.CapacityTotal,
		&event.CapacitySold,
		&event.RevenueTotal,
		&event.RevenuePlatform,
		&event.RevenueOrganizer,
		&event.TicketsSold,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	event.Tiers, err = r.getTiers(ctx, id)
	return event, err
}

func (r *EventRepository) List(ctx context.Context, page, pageSize int) ([]models.Event, error) {
	var events []models.Event
	query := `
		SELECT id, title, description, organizer_id, status, starts_at, ends_at, currency,
		       capacity_total, capacity_sold, revenue_total, revenue_platform,
		       revenue_organizer, tickets_sold, created_at, updated_at
		FROM events
		WHERE status = 'published'
		ORDER BY starts_at ASC, id ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.OrganizerID,
			&event.Status,
			&event.StartsAt,
			&event.EndsAt,
			&event.Currency,
			&event.CapacityTotal,
			&event.CapacitySold,
			&event.RevenueTotal,
			&event.RevenuePlatform,
			&event.RevenueOrganizer,
			&event.TicketsSold,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *EventRepository) getTiers(ctx context.Context, eventID int64) ([]models.TicketTier, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, name, price, quantity, sold
		FROM ticket_tiers
		WHERE event_id = $1
		ORDER BY price ASC, name ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []models.TicketTier
	for rows.Next() {
		var tier models.TicketTier
		if err := rows.Scan(&tier.EventID, &tier.Name, &tier.Price, &tier.Quantity, &tier.Sold); err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}

	return tiers, rows.Err()
}

// Reserve increments the sold counters for every requested line, all-or-nothing.
// Each increment is a conditional UPDATE ("increment only if it stays within the
// cap"), so two bookings racing for the last ticket cannot both win; the losing
// statement simply matches zero rows and the whole reservation rolls back.
func (r *EventRepository) Reserve(ctx context.Context, eventID int64, lines []models.TicketLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	totalRequested := 0
	for _, line := range lines {
		totalRequested += line.Quantity

		res, err := tx.ExecContext(ctx, `
			UPDATE ticket_tiers
			SET sold = sold + $1
			WHERE event_id = $2 AND name = $3
			  AND (quantity IS NULL OR sold + $1 <= quantity)`,
			line.Quantity, eventID, line.TierName)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM ticket_tiers WHERE event_id = $1 AND name = $2)`,
				eventID, line.TierName).Scan(&exists)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: %s", apperrors.ErrInvalidTier, line.TierName)
			}
			return fmt.Errorf("%w for %s", apperrors.ErrSoldOut, line.TierName)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE events
		SET capacity_sold = capacity_sold + $1, updated_at = NOW()
		WHERE id = $2
		  AND (capacity_total IS NULL OR capacity_sold + $1 <= capacity_total)`,
		totalRequested, eventID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: event capacity reached", apperrors.ErrSoldOut)
	}

	return tx.Commit()
}

// Release decrements the sold counters for every line of a cancelled booking.
// Counters never go below zero; a decrement that would underflow is clamped and
// logged, since it means the counters drifted somewhere else.
func (r *EventRepository) Release(ctx context.Context, eventID int64, lines []models.TicketLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	totalReleased := 0
	for _, line := range lines {
		totalReleased += line.Quantity

		res, err := tx.ExecContext(ctx, `
			UPDATE ticket_tiers SET sold = sold - $1
			WHERE event_id = $2 AND name = $3 AND sold >= $1`,
			line.Quantity, eventID, line.TierName)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			slog.Warn("Release would underflow tier sold counter, clamping to zero",
				"event_id", eventID,
				"tier", line.TierName,
				"quantity", line.Quantity)
			_, err := tx.ExecContext(ctx,
				`UPDATE ticket_tiers SET sold = 0 WHERE event_id = $1 AND name = $2`,
				eventID, line.TierName)
			if err != nil {
				return err
			}
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE events SET capacity_sold = capacity_sold - $1, updated_at = NOW()
		WHERE id = $2 AND capacity_sold >= $1`,
		totalReleased, eventID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		slog.Warn("Release would underflow event capacity counter, clamping to zero",
			"event_id", eventID,
			"quantity", totalReleased)
		_, err := tx.ExecContext(ctx,
			`UPDATE events SET capacity_sold = 0, updated_at = NOW() WHERE id = $1`,
			eventID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
