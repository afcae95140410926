package service

import (
	"context"

	"invest_platform/internal/domain"
	"invest_platform/internal/logger"
	"invest_platform/internal/repository"
)

// EligibilityGate decides whether a user may submit a withdrawal.
type EligibilityGate struct {
	store repository.Store
}

func NewEligibilityGate(store repository.Store) *EligibilityGate {
	return &EligibilityGate{store: store}
}

func (g *EligibilityGate) CanWithdraw(ctx context.Context, userID int64) (domain.Eligibility, error) {
	u, err := g.store.GetUser(ctx, userID)
	if err != nil {
		return domain.Eligibility{}, err
	}
	return g.check(ctx, g.store, u)
}

func (g *EligibilityGate) check(ctx context.Context, st repository.Store, u *domain.User) (domain.Eligibility, error) {
	progress, err := st.TaskProgress(ctx, u.ID)
	if err != nil {
		return domain.Eligibility{}, err
	}
	return evaluate(u, progress), nil
}

// evaluate applies the gate rules: blocked first, then mandatory tasks.
func evaluate(u *domain.User, progress domain.TaskProgress) domain.Eligibility {
	e := domain.Eligibility{
		Allowed:            true,
		CompletedMandatory: progress.CompletedMandatory,
		TotalMandatory:     progress.TotalMandatory,
	}
	switch {
	case u.IsBlocked:
		e.Allowed, e.Reason = false, domain.ReasonBlocked
	case !progress.Done():
		e.Allowed, e.Reason = false, domain.ReasonTasksIncomplete
	}
	return e
}

// CompleteTask marks a task done for the user and returns the updated eligibility.
func (g *EligibilityGate) CompleteTask(ctx context.Context, userID, taskID int64) (domain.Eligibility, error) {
	var e domain.Eligibility
	err := g.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.CompleteTask(ctx, userID, taskID); err != nil {
			return err
		}
		e, err = g.check(ctx, tx, u)
		return err
	})
	if err != nil {
		return domain.Eligibility{}, err
	}

	logger.Debug("task completed", "user_id", userID, "task_id", taskID, "allowed", e.Allowed)
	return e, nil
}
