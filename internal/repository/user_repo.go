package repository

import (
	"context"
	"fmt"

	"invest_platform/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `id, email, username, balance, plan_id, is_blocked, is_kyc_verified, is_admin,
		referral_code, referred_by, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.Balance, &u.PlanID, &u.IsBlocked, &u.IsKYCVerified, &u.IsAdmin,
		&u.ReferralCode, &u.ReferredBy, &u.CreatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// CreateUser inserts a user with a zero balance
func (s *PostgresStore) CreateUser(ctx context.Context, u *domain.User) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO users (email, username, plan_id, is_admin, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, balance, created_at
	`, u.Email, u.Username, u.PlanID, u.IsAdmin, u.ReferralCode, u.ReferredBy).Scan(&u.ID, &u.Balance, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// LockUser reads the user with a row lock held until commit
func (s *PostgresStore) LockUser(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (s *PostgresStore) GetUserByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code))
}

func (s *PostgresStore) SetUserBlocked(ctx context.Context, id int64, blocked bool) error {
	return s.execUser(ctx, `UPDATE users SET is_blocked = $2 WHERE id = $1`, id, blocked)
}

func (s *PostgresStore) SetUserKYCVerified(ctx context.Context, id int64, verified bool) error {
	return s.execUser(ctx, `UPDATE users SET is_kyc_verified = $2 WHERE id = $1`, id, verified)
}

func (s *PostgresStore) SetUserPlan(ctx context.Context, id int64, planID int64) error {
	return s.execUser(ctx, `UPDATE users SET plan_id = $2 WHERE id = $1`, id, planID)
}

func (s *PostgresStore) SetUserBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	return s.execUser(ctx, `UPDATE users SET balance = $2 WHERE id = $1`, id, balance)
}

func (s *PostgresStore) execUser(ctx context.Context, sql string, id int64, arg any) error {
	tag, err := s.q.Exec(ctx, sql, id, arg)
	if err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// InsertBalanceEntry journals a delta. A duplicate record key inserts nothing.
func (s *PostgresStore) InsertBalanceEntry(ctx context.Context, e *domain.BalanceEntry) (bool, error) {
	err := s.q.QueryRow(ctx, `
		INSERT INTO balance_entries (user_id, delta, reason, record_key, balance_after)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (record_key) DO NOTHING
		RETURNING id, created_at
	`, e.UserID, e.Delta, e.Reason, e.RecordKey, e.BalanceAfter).Scan(&e.ID, &e.CreatedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert balance entry: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) ListBalanceEntries(ctx context.Context, userID int64, limit int) ([]domain.BalanceEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.Query(ctx, `
		SELECT id, user_id, delta, reason, record_key, balance_after, created_at
		FROM balance_entries
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.BalanceEntry
	for rows.Next() {
		var e domain.BalanceEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Delta, &e.Reason, &e.RecordKey, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
