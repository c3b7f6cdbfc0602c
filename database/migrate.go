package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema hardening beyond AutoMigrate:
// - Money/rate column types (NUMERIC)
// - Indexes for mandate lookups and the audit trail
// - CHECK constraints on the signature state columns
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- Column types (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE properties ALTER COLUMN monthly_rent    TYPE numeric(12,2)`,
			`ALTER TABLE mandates   ALTER COLUMN commission_rate TYPE numeric(5,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("column type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_mandates_owner_status ON mandates (owner_id, status)`,
			`CREATE INDEX IF NOT EXISTS idx_mandates_agency_status ON mandates (agency_id, status)`,
			`CREATE INDEX IF NOT EXISTS idx_signature_attempts_mandate_created ON signature_attempt_logs (mandate_id, created_at)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- CHECK constraints (idempotent) ---
		checks := []string{
			// status and signed-at columns must agree: active iff both signed
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'mandates'::regclass
					  AND conname  = 'chk_mandates_active_both_signed'
				) THEN
					ALTER TABLE mandates
					ADD CONSTRAINT chk_mandates_active_both_signed
					CHECK (
						(status = 'active') = (owner_signed_at IS NOT NULL AND agency_signed_at IS NOT NULL)
					);
				END IF;
			END $$;`,
			// signed_at is present exactly when the mandate is active
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'mandates'::regclass
					  AND conname  = 'chk_mandates_signed_at_active'
				) THEN
					ALTER TABLE mandates
					ADD CONSTRAINT chk_mandates_signed_at_active
					CHECK ((signed_at IS NOT NULL) = (status = 'active'));
				END IF;
			END $$;`,
			// commission in percent, non-negative
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'mandates'::regclass
					  AND conname  = 'chk_mandates_commission_nonneg'
				) THEN
					ALTER TABLE mandates
					ADD CONSTRAINT chk_mandates_commission_nonneg
					CHECK (commission_rate >= 0);
				END IF;
			END $$;`,
			// audit outcomes are a closed set
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'signature_attempt_logs'::regclass
					  AND conname  = 'chk_signature_attempts_outcome'
				) THEN
					ALTER TABLE signature_attempt_logs
					ADD CONSTRAINT chk_signature_attempts_outcome
					CHECK (outcome IN ('success', 'failed', 'fallback_simple'));
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
