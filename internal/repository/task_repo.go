package repository

import (
	"context"
	"fmt"

	"invest_platform/internal/domain"
)

func (s *PostgresStore) CreateTask(ctx context.Context, t *domain.Task) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO tasks (title, description, is_mandatory)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, t.Title, t.Description, t.IsMandatory).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// CompleteTask marks a task done for a user. Completing twice is a no-op.
func (s *PostgresStore) CompleteTask(ctx context.Context, userID, taskID int64) error {
	var exists bool
	if err := s.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, taskID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}

	_, err := s.q.Exec(ctx, `
		INSERT INTO user_tasks (user_id, task_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, task_id) DO NOTHING
	`, userID, taskID)
	return err
}

// TaskProgress counts completed and total mandatory tasks for a user
func (s *PostgresStore) TaskProgress(ctx context.Context, userID int64) (domain.TaskProgress, error) {
	var p domain.TaskProgress
	err := s.q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user_tasks ut JOIN tasks t ON t.id = ut.task_id
				WHERE ut.user_id = $1 AND t.is_mandatory),
			(SELECT COUNT(*) FROM tasks WHERE is_mandatory)
	`, userID).Scan(&p.CompletedMandatory, &p.TotalMandatory)
	return p, err
}
