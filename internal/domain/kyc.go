package domain

import "time"

type DocumentType string

const (
	DocumentIDCard         DocumentType = "id_card"
	DocumentPassport       DocumentType = "passport"
	DocumentDrivingLicense DocumentType = "driving_license"
)

func (d DocumentType) Valid() bool {
	switch d {
	case DocumentIDCard, DocumentPassport, DocumentDrivingLicense:
		return true
	}
	return false
}

type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "pending"
	KYCStatusApproved KYCStatus = "approved"
	KYCStatusRejected KYCStatus = "rejected"
)

// KYCDocument is one identity verification submission. A user's submissions
// form a history; the most recent one is the active one.
type KYCDocument struct {
	ID               int64        `db:"id" json:"id"`
	UserID           int64        `db:"user_id" json:"user_id"`
	DocumentType     DocumentType `db:"document_type" json:"document_type"`
	DocumentFrontURL string       `db:"document_front_url" json:"document_front_url"`
	DocumentBackURL  string       `db:"document_back_url" json:"document_back_url,omitempty"`
	SelfieURL        string       `db:"selfie_url" json:"selfie_url"`
	Status           KYCStatus    `db:"status" json:"status"`
	AdminNote        string       `db:"admin_note" json:"admin_note,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	ReviewedAt       *time.Time   `db:"reviewed_at" json:"reviewed_at,omitempty"`
}
