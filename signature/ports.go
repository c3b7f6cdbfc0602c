package signature

import (
	"context"
	"encoding/json"
	"time"

	"montoit-backend/models"
)

// Role identifies the signing party.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAgency Role = "agency"
)

// Method selects how the signature is obtained.
type Method string

const (
	MethodSimple    Method = "simple"
	MethodCertified Method = "certified"
)

// Notification events emitted after a successful transition.
const (
	EventOwnerSigned  = "owner_signed"
	EventAgencySigned = "agency_signed"
)

// SignaturePatch is the write applied to a mandate when a party signs. The
// store must apply it as a single conditional update: the acting role's
// signed-at column must still be NULL at write time, and the status columns
// are recomputed from both signed-at columns inside the same statement.
type SignaturePatch struct {
	Role                Role
	SignedAt            time.Time
	Fallback            bool
	ProviderOperationID string
	SignedDocumentURL   string
}

// Store is the persistence port for the signature workflow.
type Store interface {
	// GetMandate returns the mandate with parties resolved (owner and the
	// agency's acting user). Returns ErrMandateNotFound when absent.
	GetMandate(ctx context.Context, id string) (*models.Mandate, error)

	// ApplySignature performs the compare-and-set write. It returns false
	// without error when the role's signed-at column was no longer NULL.
	ApplySignature(ctx context.Context, id string, patch SignaturePatch) (bool, error)

	// AppendAttempt inserts one immutable audit row.
	AppendAttempt(ctx context.Context, entry *models.SignatureAttemptLog) error
}

// ProviderRequest is the payload submitted to the certified provider.
type ProviderRequest struct {
	DocumentType  string
	DocumentID    string
	SignerContact string
	OTP           string
	Metadata      map[string]string
}

// ProviderResult is a successful certified-provider response.
type ProviderResult struct {
	OperationID       string
	SignedDocumentURL string
	Raw               json.RawMessage
}

// Provider is the certified-signature provider port. Implementations must
// classify failures as *ProviderError (Rejected vs Unavailable); the strategy
// bases its fallback decision solely on that classification.
type Provider interface {
	Authenticate(ctx context.Context) (string, error)
	Sign(ctx context.Context, token string, req ProviderRequest) (*ProviderResult, error)
}

// Notifier is informed after a successful state transition. Fire-and-forget:
// its failures never fail the signing operation.
type Notifier interface {
	Notify(ctx context.Context, event string, mandateID string) error
}
