package models

import (
	"time"

	"gorm.io/datatypes"
)

// Attempt outcomes.
const (
	AttemptSuccess        = "success"
	AttemptFailed         = "failed"
	AttemptFallbackSimple = "fallback_simple"
)

// SignatureAttemptLog is an append-only audit row, one per signature attempt
// regardless of outcome. Rows are never updated or deleted.
type SignatureAttemptLog struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	MandateId       string         `json:"mandate_id" gorm:"not null;index:idx_signature_attempts_mandate_created,priority:1"`
	PartyRole       string         `json:"party_role" gorm:"type:VARCHAR(10);not null"` // owner | agency
	UserId          string         `json:"user_id" gorm:"not null"`
	Outcome         string         `json:"outcome" gorm:"type:VARCHAR(20);not null"` // success | failed | fallback_simple
	ProviderPayload datatypes.JSON `json:"provider_payload" gorm:"type:jsonb"`
	ErrorMessage    *string        `json:"error_message"`
	RequestOrigin   *string        `json:"request_origin"`
	CreatedAt       time.Time      `json:"created_at" gorm:"index:idx_signature_attempts_mandate_created,priority:2"`
}

func (SignatureAttemptLog) TableName() string { return "signature_attempt_logs" }
