package sqlite

import (
	"context"
	"fmt"
	"sort"

	"invest_platform/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	row := userRow{
		Email:        u.Email,
		Username:     u.Username,
		Balance:      decimal.Zero,
		PlanID:       u.PlanID,
		IsAdmin:      u.IsAdmin,
		ReferralCode: u.ReferralCode,
		ReferredBy:   u.ReferredBy,
		CreatedAt:    s.stamp(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = row.ID
	u.Balance = row.Balance
	u.CreatedAt = fromNanos(row.CreatedAt)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var row userRow
	if err := s.conn(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

// LockUser is a plain read: the single connection already excludes other writers.
func (s *Store) LockUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.GetUser(ctx, id)
}

func (s *Store) GetUserByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	var row userRow
	if err := s.conn(ctx).Where("referral_code = ?", code).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) SetUserBlocked(ctx context.Context, id int64, blocked bool) error {
	return s.updateUser(ctx, id, "is_blocked", blocked)
}

func (s *Store) SetUserKYCVerified(ctx context.Context, id int64, verified bool) error {
	return s.updateUser(ctx, id, "is_kyc_verified", verified)
}

func (s *Store) SetUserPlan(ctx context.Context, id int64, planID int64) error {
	return s.updateUser(ctx, id, "plan_id", planID)
}

func (s *Store) SetUserBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	return s.updateUser(ctx, id, "balance", balance)
}

func (s *Store) updateUser(ctx context.Context, id int64, column string, value any) error {
	res := s.conn(ctx).Model(&userRow{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) InsertBalanceEntry(ctx context.Context, e *domain.BalanceEntry) (bool, error) {
	row := balanceEntryRow{
		UserID:       e.UserID,
		Delta:        e.Delta,
		Reason:       e.Reason,
		RecordKey:    e.RecordKey,
		BalanceAfter: e.BalanceAfter,
		CreatedAt:    s.stamp(),
	}
	res := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, fmt.Errorf("insert balance entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	e.ID = row.ID
	e.CreatedAt = fromNanos(row.CreatedAt)
	return true, nil
}

func (s *Store) ListBalanceEntries(ctx context.Context, userID int64, limit int) ([]domain.BalanceEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []balanceEntryRow
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]domain.BalanceEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toDomain())
	}
	return entries, nil
}

func (s *Store) CreatePlan(ctx context.Context, p *domain.Plan) error {
	min, max := p.Bounds()
	row := planRow{
		Name:                 p.Name,
		DailyDepositLimit:    p.DailyDepositLimit,
		DailyWithdrawalLimit: p.DailyWithdrawalLimit,
		DailyProfitLimit:     p.DailyProfitLimit,
		Price:                p.Price,
		MinAmount:            min,
		MaxAmount:            max,
		IsDefault:            p.IsDefault,
		CreatedAt:            s.stamp(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	p.ID = row.ID
	p.MinAmount, p.MaxAmount = min, max
	p.CreatedAt = fromNanos(row.CreatedAt)
	return nil
}

func (s *Store) GetPlan(ctx context.Context, id int64) (*domain.Plan, error) {
	var row planRow
	if err := s.conn(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetDefaultPlan(ctx context.Context) (*domain.Plan, error) {
	var row planRow
	if err := s.conn(ctx).Where("is_default = ?", true).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	var rows []planRow
	if err := s.conn(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	plans := make([]domain.Plan, 0, len(rows))
	for i := range rows {
		plans = append(plans, *rows[i].toDomain())
	}
	// price is stored as text
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].Price.LessThan(plans[j].Price) })
	return plans, nil
}
