package domain

import "time"

// AuditLog records who did what to which record
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	ActorID   int64                  `db:"actor_id" json:"actor_id,omitempty"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

const (
	AuditCategoryPayment    = "payment"
	AuditCategoryWithdrawal = "withdrawal"
	AuditCategoryKYC        = "kyc"
	AuditCategoryBalance    = "balance"
	AuditCategoryAdmin      = "admin"
)

const (
	AuditActionDepositRequest  = "deposit_request"
	AuditActionDepositApprove  = "deposit_approve"
	AuditActionDepositReject   = "deposit_reject"
	AuditActionWithdrawRequest = "withdraw_request"
	AuditActionWithdrawApprove = "withdraw_approve"
	AuditActionWithdrawReject  = "withdraw_reject"
	AuditActionKYCSubmit       = "kyc_submit"
	AuditActionKYCApprove      = "kyc_approve"
	AuditActionKYCReject       = "kyc_reject"

	AuditActionBalanceCredit = "balance_credit"
	AuditActionBalanceDebit  = "balance_debit"
	AuditActionPlanPurchase  = "plan_purchase"

	AuditActionAdminBlockUser   = "admin_block_user"
	AuditActionAdminUnblockUser = "admin_unblock_user"
)
