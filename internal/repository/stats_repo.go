package repository

import (
	"context"
	"time"
)

// Stats aggregates counters for the admin dashboard
func (s *PostgresStore) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	var st Stats
	err := s.q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_blocked),
			(SELECT COALESCE(SUM(balance), 0) FROM users),
			(SELECT COUNT(*) FROM withdrawals WHERE status = 'pending'),
			(SELECT COUNT(*) FROM payments WHERE status = 'pending'),
			(SELECT COUNT(*) FROM kyc_documents WHERE status = 'pending'),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions
				WHERE type = 'deposit' AND status = 'completed' AND created_at >= $1),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions
				WHERE type = 'withdrawal' AND status = 'completed' AND created_at >= $1),
			(SELECT COALESCE(SUM(amount), 0) FROM withdrawals WHERE status = 'pending')
	`, since).Scan(
		&st.TotalUsers, &st.BlockedUsers, &st.TotalBalance,
		&st.PendingWithdrawals, &st.PendingPayments, &st.PendingKYC,
		&st.DepositedSince, &st.WithdrawnSince, &st.ReservedWithdrawals,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

var _ Store = (*PostgresStore)(nil)
