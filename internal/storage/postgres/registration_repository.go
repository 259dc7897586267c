package postgres

import (
	"context"
	"fmt"

	"github.com/Pijatow/isocrates-bot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

const registrationColumns = `registration_id, user_id, event_id, status, receipt_file_id, discount_id, final_fee, ticket_code, registered_at`

func scanRegistration(row pgx.Row) (domain.Registration, error) {
	var reg domain.Registration
	err := row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.ReceiptFileID,
		&reg.DiscountID, &reg.FinalFee, &reg.TicketCode, &reg.RegisteredAt)
	return reg, err
}

// Create inserts a registration. The partial unique index on live
// registrations turns a duplicate attempt into ErrDuplicateRegistration.
func (r *RegistrationRepository) Create(ctx context.Context, reg domain.Registration) (domain.Registration, error) {
	const stmt = `
INSERT INTO registrations (user_id, event_id, status, receipt_file_id, discount_id, final_fee, ticket_code)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + registrationColumns
	created, err := scanRegistration(r.pool.QueryRow(ctx, stmt,
		reg.UserID, reg.EventID, reg.Status, reg.ReceiptFileID, reg.DiscountID, reg.FinalFee, reg.TicketCode))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Registration{}, domain.ErrDuplicateRegistration
		}
		if isForeignKeyViolation(err) {
			return domain.Registration{}, domain.ErrEventNotFound
		}
		return domain.Registration{}, fmt.Errorf("create registration: %w", err)
	}
	return created, nil
}

// UpdateStatus moves a registration to the given status and returns
// the ticket code now on the row. A supplied code is written only when
// the row has none yet, so a ticket is assigned exactly once and a
// repeated approval reports the code that actually stuck.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, registrationID int64, status domain.RegistrationStatus, ticketCode *string) (*string, error) {
	const stmt = `
UPDATE registrations
SET status = $2, ticket_code = COALESCE(ticket_code, $3)
WHERE registration_id = $1
RETURNING ticket_code`
	var stored *string
	if err := r.pool.QueryRow(ctx, stmt, registrationID, status, ticketCode).Scan(&stored); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("update registration status: %w", err)
	}
	return stored, nil
}

// FindByUserAndEvent returns the user's most recent registration for
// the event, or nil when there is none.
func (r *RegistrationRepository) FindByUserAndEvent(ctx context.Context, userID, eventID int64) (*domain.Registration, error) {
	const query = `
SELECT ` + registrationColumns + `
FROM registrations
WHERE user_id = $1 AND event_id = $2
ORDER BY registered_at DESC
LIMIT 1`
	reg, err := scanRegistration(r.pool.QueryRow(ctx, query, userID, eventID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

// NextPendingWithReceipt fetches the oldest pending registration that
// has a receipt attached, joined with the registrant and event for the
// review caption.
func (r *RegistrationRepository) NextPendingWithReceipt(ctx context.Context) (domain.PendingReview, error) {
	const query = `
SELECT r.registration_id, r.user_id, r.receipt_file_id, u.username, u.first_name, e.name
FROM registrations r
JOIN users u ON u.user_id = r.user_id
JOIN events e ON e.event_id = r.event_id
WHERE r.status = 'pending_verification' AND r.receipt_file_id IS NOT NULL
ORDER BY r.registered_at ASC
LIMIT 1`
	var review domain.PendingReview
	err := r.pool.QueryRow(ctx, query).
		Scan(&review.RegistrationID, &review.UserID, &review.ReceiptFileID,
			&review.Username, &review.FirstName, &review.EventName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.PendingReview{}, domain.ErrNoPendingRegistration
		}
		return domain.PendingReview{}, fmt.Errorf("next pending registration: %w", err)
	}
	return review, nil
}

func (r *RegistrationRepository) AttachReceipt(ctx context.Context, registrationID int64, fileID string) error {
	const stmt = `UPDATE registrations SET receipt_file_id = $2 WHERE registration_id = $1`
	tag, err := r.pool.Exec(ctx, stmt, registrationID, fileID)
	if err != nil {
		return fmt.Errorf("attach receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRegistrationNotFound
	}
	return nil
}

func (r *RegistrationRepository) ConfirmedAttendees(ctx context.Context, eventID int64) ([]int64, error) {
	const query = `SELECT user_id FROM registrations WHERE event_id = $1 AND status = 'confirmed'`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("confirmed attendees: %w", err)
	}
	defer rows.Close()

	var attendees []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		attendees = append(attendees, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate attendees: %w", rows.Err())
	}
	return attendees, nil
}

func (r *RegistrationRepository) Participants(ctx context.Context, eventID int64) ([]domain.Participant, error) {
	const query = `
SELECT r.user_id, u.username, u.first_name, r.status, r.final_fee, r.ticket_code
FROM registrations r
JOIN users u ON u.user_id = r.user_id
WHERE r.event_id = $1
ORDER BY r.registered_at ASC`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("participants: %w", err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.UserID, &p.Username, &p.FirstName, &p.Status, &p.FinalFee, &p.TicketCode); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate participants: %w", rows.Err())
	}
	return participants, nil
}
