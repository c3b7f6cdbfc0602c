package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MandateStatus tracks which parties have signed the representation mandate.
type MandateStatus string

const (
	MandateDraft        MandateStatus = "draft"
	MandateOwnerSigned  MandateStatus = "owner_signed"
	MandateAgencySigned MandateStatus = "agency_signed"
	MandateActive       MandateStatus = "active"
)

// MethodStatus mirrors signature progress for compliance review. Unlike
// Status it also records how the signatures were obtained (metadata column).
type MethodStatus string

const (
	MethodPending      MethodStatus = "pending"
	MethodOwnerSigned  MethodStatus = "owner_signed"
	MethodAgencySigned MethodStatus = "agency_signed"
	MethodCompleted    MethodStatus = "completed"
)

// Mandate is the representation agreement between a property owner and an
// agency, subject to dual signature. Signature state is mutated exclusively
// through database.ApplySignature; both Status and SignatureMethodStatus are
// recomputed from the signed-at columns at write time, never set directly.
type Mandate struct {
	Id         string   `json:"id" gorm:"primaryKey"`
	PropertyId string   `json:"property_id" gorm:"not null;index"`
	Property   Property `json:"property" gorm:"foreignKey:PropertyId;references:Id"`
	OwnerId    string   `json:"owner_id" gorm:"not null;index"`
	Owner      User     `json:"-" gorm:"foreignKey:OwnerId;references:Id"`
	AgencyId   string   `json:"agency_id" gorm:"not null;index"`
	Agency     Agency   `json:"agency" gorm:"foreignKey:AgencyId;references:Id"`

	// Mandate terms
	CommissionRate float64        `json:"commission_rate"`
	Exclusive      bool           `json:"exclusive"`
	Metadata       datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	// Signature state. Each signed-at column is written at most once.
	Status                MandateStatus `json:"status" gorm:"type:VARCHAR(20);not null;default:'draft'"`
	SignatureMethodStatus MethodStatus  `json:"signature_method_status" gorm:"type:VARCHAR(20);not null;default:'pending'"`
	OwnerSignedAt         *time.Time    `json:"owner_signed_at"`
	AgencySignedAt        *time.Time    `json:"agency_signed_at"`
	SignedAt              *time.Time    `json:"signed_at"` // set once, when both parties have signed

	// Certified-signature evidence
	ProviderOperationId string `json:"provider_operation_id,omitempty"`
	SignedDocumentUrl   string `json:"signed_document_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (mandate *Mandate) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if mandate.Id == "" {
		mandate.Id = uuid.NewString()
	}
	return
}

// IsComplete reports whether both parties have signed.
func (mandate *Mandate) IsComplete() bool {
	return mandate.OwnerSignedAt != nil && mandate.AgencySignedAt != nil
}
