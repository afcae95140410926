package repository

import (
	"context"
	"fmt"

	"invest_platform/internal/domain"

	"github.com/jackc/pgx/v5"
)

const planColumns = `id, name, daily_deposit_limit, daily_withdrawal_limit, daily_profit_limit,
		price, min_amount, max_amount, is_default, created_at`

func scanPlan(row pgx.Row) (*domain.Plan, error) {
	var p domain.Plan
	if err := row.Scan(
		&p.ID, &p.Name, &p.DailyDepositLimit, &p.DailyWithdrawalLimit, &p.DailyProfitLimit,
		&p.Price, &p.MinAmount, &p.MaxAmount, &p.IsDefault, &p.CreatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *PostgresStore) CreatePlan(ctx context.Context, p *domain.Plan) error {
	min, max := p.Bounds()
	err := s.q.QueryRow(ctx, `
		INSERT INTO plans (name, daily_deposit_limit, daily_withdrawal_limit, daily_profit_limit,
		                   price, min_amount, max_amount, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, p.Name, p.DailyDepositLimit, p.DailyWithdrawalLimit, p.DailyProfitLimit,
		p.Price, min, max, p.IsDefault).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	p.MinAmount, p.MaxAmount = min, max
	return nil
}

func (s *PostgresStore) GetPlan(ctx context.Context, id int64) (*domain.Plan, error) {
	return scanPlan(s.q.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
}

func (s *PostgresStore) GetDefaultPlan(ctx context.Context) (*domain.Plan, error) {
	return scanPlan(s.q.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE is_default LIMIT 1`))
}

func (s *PostgresStore) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	rows, err := s.q.Query(ctx, `SELECT `+planColumns+` FROM plans ORDER BY price ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}
