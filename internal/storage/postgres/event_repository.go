package postgres

import (
	"context"
	"fmt"

	"github.com/Pijatow/isocrates-bot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `event_id, name, description, event_date, is_paid, fee, payment_details, reminders, is_active, created_at`

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.IsPaid, &e.Fee,
		&e.PaymentDetails, &e.Reminders, &e.IsActive, &e.CreatedAt)
	return e, err
}

// Create persists a new event as the sole active one: all other events
// are deactivated in the same transaction.
func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	var created domain.Event
	err := withTx(ctx, r.pool, func(txCtx context.Context) error {
		tx := txFromContext(txCtx)
		if _, err := tx.Exec(txCtx, `UPDATE events SET is_active = FALSE WHERE is_active`); err != nil {
			return fmt.Errorf("deactivate events: %w", err)
		}
		const stmt = `
INSERT INTO events (name, description, event_date, is_paid, fee, payment_details, reminders, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
RETURNING ` + eventColumns
		var err error
		created, err = scanEvent(tx.QueryRow(txCtx, stmt,
			event.Name, event.Description, event.Date, event.IsPaid,
			event.Fee, event.PaymentDetails, event.Reminders))
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}
	return created, nil
}

func (r *EventRepository) Get(ctx context.Context, eventID int64) (domain.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE event_id = $1`, eventID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (r *EventRepository) GetActive(ctx context.Context) (domain.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE is_active LIMIT 1`))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrNoActiveEvent
		}
		return domain.Event{}, fmt.Errorf("get active event: %w", err)
	}
	return e, nil
}

func (r *EventRepository) List(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}

// SetActive flips the active flag to the given event, deactivating all
// others in the same transaction.
func (r *EventRepository) SetActive(ctx context.Context, eventID int64) error {
	return withTx(ctx, r.pool, func(txCtx context.Context) error {
		tx := txFromContext(txCtx)
		if _, err := tx.Exec(txCtx, `UPDATE events SET is_active = FALSE WHERE is_active`); err != nil {
			return fmt.Errorf("deactivate events: %w", err)
		}
		tag, err := tx.Exec(txCtx, `UPDATE events SET is_active = TRUE WHERE event_id = $1`, eventID)
		if err != nil {
			return fmt.Errorf("activate event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrEventNotFound
		}
		return nil
	})
}

// Delete removes an event together with its registrations and discount
// codes. All three deletes run in one transaction so a failure leaves
// the store unchanged.
func (r *EventRepository) Delete(ctx context.Context, eventID int64) error {
	return withTx(ctx, r.pool, func(txCtx context.Context) error {
		tx := txFromContext(txCtx)
		if _, err := tx.Exec(txCtx, `DELETE FROM registrations WHERE event_id = $1`, eventID); err != nil {
			return fmt.Errorf("delete registrations: %w", err)
		}
		if _, err := tx.Exec(txCtx, `DELETE FROM discount_codes WHERE event_id = $1`, eventID); err != nil {
			return fmt.Errorf("delete discount codes: %w", err)
		}
		tag, err := tx.Exec(txCtx, `DELETE FROM events WHERE event_id = $1`, eventID)
		if err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrEventNotFound
		}
		return nil
	})
}

// WithPendingReminders returns active events that have both a date and
// a reminder schedule. Date validity is checked by the scheduler, not
// here, so a malformed date degrades to a per-event skip.
func (r *EventRepository) WithPendingReminders(ctx context.Context) ([]domain.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE is_active AND event_date <> '' AND reminders <> ''`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("events with reminders: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}
