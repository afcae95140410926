package domain

import "time"

type Task struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	IsMandatory bool      `db:"is_mandatory" json:"is_mandatory"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TaskProgress counts a user's mandatory task completion.
type TaskProgress struct {
	CompletedMandatory int `json:"completed_mandatory"`
	TotalMandatory     int `json:"total_mandatory"`
}

func (p TaskProgress) Done() bool {
	return p.CompletedMandatory >= p.TotalMandatory
}
