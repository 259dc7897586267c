package postgres

import (
	"context"
	"fmt"

	"github.com/Pijatow/isocrates-bot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert creates the user on first contact and refreshes the name
// fields on every later contact. Referral fields are never touched
// here.
func (r *UserRepository) Upsert(ctx context.Context, user domain.User) error {
	const stmt = `
INSERT INTO users (user_id, username, first_name)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username, first_name = EXCLUDED.first_name`
	if _, err := r.pool.Exec(ctx, stmt, user.ID, user.Username, user.FirstName); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, userID int64) (domain.User, error) {
	const query = `
SELECT user_id, username, first_name, referral_code, referred_by, referral_count, created_at
FROM users
WHERE user_id = $1`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, userID).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.ReferralCode, &u.ReferredBy, &u.ReferralCount, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByReferralCode(ctx context.Context, code string) (domain.User, error) {
	const query = `
SELECT user_id, username, first_name, referral_code, referred_by, referral_count, created_at
FROM users
WHERE referral_code = $1`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, code).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.ReferralCode, &u.ReferredBy, &u.ReferralCount, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("find user by referral code: %w", err)
	}
	return u, nil
}

// SetReferralCode assigns a code only if the user does not have one
// yet; an existing code is never overwritten.
func (r *UserRepository) SetReferralCode(ctx context.Context, userID int64, code string) error {
	const stmt = `UPDATE users SET referral_code = $2 WHERE user_id = $1 AND referral_code IS NULL`
	if _, err := r.pool.Exec(ctx, stmt, userID, code); err != nil {
		return fmt.Errorf("set referral code: %w", err)
	}
	return nil
}

func (r *UserRepository) SetReferredBy(ctx context.Context, userID, inviterID int64) error {
	const stmt = `UPDATE users SET referred_by = $2 WHERE user_id = $1 AND referred_by IS NULL`
	if _, err := r.pool.Exec(ctx, stmt, userID, inviterID); err != nil {
		return fmt.Errorf("set referred by: %w", err)
	}
	return nil
}

func (r *UserRepository) IncrementReferralCount(ctx context.Context, userID int64) error {
	const stmt = `UPDATE users SET referral_count = referral_count + 1 WHERE user_id = $1`
	tag, err := r.pool.Exec(ctx, stmt, userID)
	if err != nil {
		return fmt.Errorf("increment referral count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ReferralInfo(ctx context.Context, userID int64) (domain.ReferralInfo, error) {
	const query = `SELECT COALESCE(referral_code, ''), referral_count FROM users WHERE user_id = $1`
	var info domain.ReferralInfo
	err := r.pool.QueryRow(ctx, query, userID).Scan(&info.Code, &info.Count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ReferralInfo{}, domain.ErrUserNotFound
		}
		return domain.ReferralInfo{}, fmt.Errorf("referral info: %w", err)
	}
	return info, nil
}
