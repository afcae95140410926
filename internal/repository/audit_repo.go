package repository

import (
	"context"
	"encoding/json"

	"invest_platform/internal/domain"
)

// CreateAudit inserts a new audit log entry
func (s *PostgresStore) CreateAudit(ctx context.Context, log *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil || log.Details == nil {
		detailsJSON = []byte("{}")
	}

	return s.q.QueryRow(ctx, `
		INSERT INTO audit_logs (user_id, actor_id, action, category, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, log.UserID, log.ActorID, log.Action, log.Category, detailsJSON).Scan(&log.ID, &log.CreatedAt)
}

// ListAudit returns audit logs for a user, newest first
func (s *PostgresStore) ListAudit(ctx context.Context, userID int64, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.q.Query(ctx, `
		SELECT id, user_id, actor_id, action, category, details, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var detailsJSON []byte
		if err := rows.Scan(&log.ID, &log.UserID, &log.ActorID, &log.Action, &log.Category, &detailsJSON, &log.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &log.Details); err != nil {
			log.Details = make(map[string]interface{})
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
