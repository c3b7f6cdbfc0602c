package database

import (
	"context"
	"errors"
	"fmt"

	"montoit-backend/models"
	"montoit-backend/signature"

	"gorm.io/gorm"
)

// MandateStore implements signature.Store over the shared Postgres handle.
// It deliberately does not participate in the per-request transaction: the
// conditional update must commit on its own, and the audit insert must
// survive a rolled-back request.
type MandateStore struct {
	db *gorm.DB
}

func NewMandateStore(db *gorm.DB) *MandateStore {
	return &MandateStore{db: db}
}

func (s *MandateStore) GetMandate(ctx context.Context, id string) (*models.Mandate, error) {
	var mandate models.Mandate
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Agency").
		Preload("Agency.User").
		Preload("Property").
		Where("id = ?", id).
		First(&mandate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, signature.ErrMandateNotFound
		}
		return nil, err
	}
	return &mandate, nil
}

// ApplySignature is the compare-and-set write for one party's signature.
// The WHERE clause requires the acting role's signed-at column to still be
// NULL, and the status columns are recomputed from the other party's column
// inside the same UPDATE, under the row lock. That closes both the
// same-party double-sign race and the cross-party completion race.
func (s *MandateStore) ApplySignature(ctx context.Context, id string, patch signature.SignaturePatch) (bool, error) {
	signedCol, otherCol := "owner_signed_at", "agency_signed_at"
	partialStatus, partialMethod := models.MandateOwnerSigned, models.MethodOwnerSigned
	if patch.Role == signature.RoleAgency {
		signedCol, otherCol = "agency_signed_at", "owner_signed_at"
		partialStatus, partialMethod = models.MandateAgencySigned, models.MethodAgencySigned
	}

	updates := map[string]any{
		signedCol: patch.SignedAt,
		"status": gorm.Expr(
			"CASE WHEN "+otherCol+" IS NOT NULL THEN ? ELSE ? END",
			models.MandateActive, partialStatus),
		"signature_method_status": gorm.Expr(
			"CASE WHEN "+otherCol+" IS NOT NULL THEN ? ELSE ? END",
			models.MethodCompleted, partialMethod),
		"signed_at": gorm.Expr(
			"CASE WHEN "+otherCol+" IS NOT NULL THEN ? ELSE signed_at END",
			patch.SignedAt),
	}
	if patch.ProviderOperationID != "" {
		updates["provider_operation_id"] = patch.ProviderOperationID
	}
	if patch.SignedDocumentURL != "" {
		updates["signed_document_url"] = patch.SignedDocumentURL
	}
	if patch.Fallback {
		// The row itself must show the certified path was not exercised,
		// not just the audit trail.
		marker := fmt.Sprintf(`{"%s_signature_fallback": true}`, patch.Role)
		updates["metadata"] = gorm.Expr("COALESCE(metadata, '{}'::jsonb) || ?::jsonb", marker)
	}

	res := s.db.WithContext(ctx).
		Model(&models.Mandate{}).
		Where("id = ? AND "+signedCol+" IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *MandateStore) AppendAttempt(ctx context.Context, entry *models.SignatureAttemptLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}
