package domain

import "time"

// RecordType names a reviewable sub-record.
type RecordType string

const (
	RecordWithdrawal RecordType = "withdrawal"
	RecordPayment    RecordType = "payment"
	RecordKYC        RecordType = "kyc"
)

func (t RecordType) Valid() bool {
	switch t {
	case RecordWithdrawal, RecordPayment, RecordKYC:
		return true
	}
	return false
}

// Eligibility is the result of the withdrawal gate.
type Eligibility struct {
	Allowed            bool   `json:"allowed"`
	Reason             string `json:"reason,omitempty"`
	CompletedMandatory int    `json:"completed_mandatory"`
	TotalMandatory     int    `json:"total_mandatory"`
}

const (
	ReasonBlocked         = "blocked"
	ReasonTasksIncomplete = "tasks_incomplete"
)

// StatusEvent is emitted after a reviewable record changes state.
type StatusEvent struct {
	UserID     int64      `json:"user_id"`
	RecordType RecordType `json:"record_type"`
	RecordID   int64      `json:"record_id"`
	Status     string     `json:"status"`
	Note       string     `json:"note,omitempty"`
	At         time.Time  `json:"at"`
}
