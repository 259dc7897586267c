package postgres

import (
	"context"
	"fmt"

	"github.com/Pijatow/isocrates-bot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DiscountRepository struct {
	pool *pgxpool.Pool
}

func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

const discountColumns = `discount_id, event_id, code, kind, value, uses_left, is_active`

func scanDiscount(row pgx.Row) (domain.DiscountCode, error) {
	var d domain.DiscountCode
	err := row.Scan(&d.ID, &d.EventID, &d.Code, &d.Kind, &d.Value, &d.UsesLeft, &d.IsActive)
	return d, err
}

func (r *DiscountRepository) Create(ctx context.Context, d domain.DiscountCode) (domain.DiscountCode, error) {
	const stmt = `
INSERT INTO discount_codes (event_id, code, kind, value, uses_left, is_active)
VALUES ($1, $2, $3, $4, $5, TRUE)
RETURNING ` + discountColumns
	created, err := scanDiscount(r.pool.QueryRow(ctx, stmt, d.EventID, d.Code, d.Kind, d.Value, d.UsesLeft))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.DiscountCode{}, domain.ErrDuplicateDiscount
		}
		if isForeignKeyViolation(err) {
			return domain.DiscountCode{}, domain.ErrEventNotFound
		}
		return domain.DiscountCode{}, fmt.Errorf("create discount: %w", err)
	}
	return created, nil
}

// GetValid returns the code only when it is active and still has uses
// left. Exhausted or disabled codes are indistinguishable from missing
// ones to the caller.
func (r *DiscountRepository) GetValid(ctx context.Context, eventID int64, code string) (domain.DiscountCode, error) {
	const query = `
SELECT ` + discountColumns + `
FROM discount_codes
WHERE event_id = $1 AND code = $2 AND is_active AND uses_left > 0`
	d, err := scanDiscount(r.pool.QueryRow(ctx, query, eventID, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.DiscountCode{}, domain.ErrDiscountNotFound
		}
		return domain.DiscountCode{}, fmt.Errorf("get valid discount: %w", err)
	}
	return d, nil
}

// ConsumeUse atomically decrements uses_left, refusing to go below
// zero.
func (r *DiscountRepository) ConsumeUse(ctx context.Context, discountID int64) error {
	const stmt = `UPDATE discount_codes SET uses_left = uses_left - 1 WHERE discount_id = $1 AND uses_left > 0`
	tag, err := r.pool.Exec(ctx, stmt, discountID)
	if err != nil {
		return fmt.Errorf("consume discount use: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDiscountExhausted
	}
	return nil
}

func (r *DiscountRepository) Delete(ctx context.Context, discountID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM discount_codes WHERE discount_id = $1`, discountID)
	if err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDiscountNotFound
	}
	return nil
}

func (r *DiscountRepository) ListByEvent(ctx context.Context, eventID int64) ([]domain.DiscountCode, error) {
	const query = `SELECT ` + discountColumns + ` FROM discount_codes WHERE event_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	defer rows.Close()

	var discounts []domain.DiscountCode
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		discounts = append(discounts, d)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate discounts: %w", rows.Err())
	}
	return discounts, nil
}
