package signature

import (
	"context"
	"errors"
	"time"

	"montoit-backend/models"

	"go.uber.org/zap"
)

const notifyTimeout = 10 * time.Second

// SignCommand is one sign request for a mandate.
type SignCommand struct {
	MandateID string
	CallerID  string // authenticated user id
	Role      Role
	Method    Method
	OTP       string
	Origin    string // request origin, kept on the audit row
}

// SignResult reports the authoritative post-write state of the mandate.
type SignResult struct {
	Status              models.MandateStatus `json:"status"`
	SignedAt            *time.Time           `json:"signed_at"`
	IsComplete          bool                 `json:"is_complete"`
	AlreadySigned       bool                 `json:"already_signed"`
	Fallback            bool                 `json:"fallback"`
	ProviderOperationID string               `json:"provider_operation_id,omitempty"`
}

// Engine owns the mandate signature state machine: authorization, the
// idempotency guard, delegation to the method strategy, the conditional
// update, the audit row, and the post-transition notification.
type Engine struct {
	store    Store
	strategy *Strategy
	notifier Notifier
	log      *zap.Logger
}

func NewEngine(store Store, strategy *Strategy, notifier Notifier, log *zap.Logger) *Engine {
	return &Engine{store: store, strategy: strategy, notifier: notifier, log: log}
}

// Sign executes one signing attempt.
//
// On ErrAlreadySigned the returned result (when non-nil) carries the current
// mandate state with AlreadySigned set, so callers can report an idempotent
// no-op instead of a failure.
func (e *Engine) Sign(ctx context.Context, cmd SignCommand) (*SignResult, error) {
	if cmd.Role != RoleOwner && cmd.Role != RoleAgency {
		return nil, errors.New("invalid party role: " + string(cmd.Role))
	}
	if cmd.Method != MethodSimple && cmd.Method != MethodCertified {
		return nil, errors.New("invalid signature method: " + string(cmd.Method))
	}
	if cmd.Method == MethodCertified && cmd.OTP == "" {
		return nil, ErrOTPRequired
	}

	mandate, err := e.store.GetMandate(ctx, cmd.MandateID)
	if err != nil {
		if errors.Is(err, ErrMandateNotFound) {
			return nil, err
		}
		return nil, &StorageError{Op: "get mandate", Err: err}
	}

	if !authorized(mandate, cmd.Role, cmd.CallerID) {
		return nil, ErrUnauthorized
	}

	// Pre-check. The conditional update below is the authoritative guard;
	// this only short-circuits before any provider call.
	if signedAtFor(mandate, cmd.Role) != nil {
		return &SignResult{
			Status:        mandate.Status,
			SignedAt:      mandate.SignedAt,
			IsComplete:    mandate.IsComplete(),
			AlreadySigned: true,
		}, ErrAlreadySigned
	}

	outcome, err := e.strategy.Execute(ctx, cmd.Method, providerRequestFor(mandate, cmd))
	if err != nil {
		// A provider call was made; the attempt gets its audit row whether
		// the provider said no or was unreachable with fallback disabled.
		var rejected *RejectedError
		var unavailable *ProviderError
		if errors.As(err, &rejected) {
			e.audit(ctx, cmd, models.AttemptFailed, nil, rejected.Error())
		} else if errors.As(err, &unavailable) {
			e.audit(ctx, cmd, models.AttemptFailed, nil, unavailable.Error())
		}
		return nil, err
	}

	ok, err := e.store.ApplySignature(ctx, mandate.Id, SignaturePatch{
		Role:                cmd.Role,
		SignedAt:            outcome.SignedAt,
		Fallback:            outcome.Fallback,
		ProviderOperationID: outcome.ProviderOperationID,
		SignedDocumentURL:   outcome.SignedDocumentURL,
	})
	if err != nil {
		e.audit(ctx, cmd, models.AttemptFailed, outcome.ProviderPayload, err.Error())
		return nil, &StorageError{Op: "apply signature", Err: err}
	}
	if !ok {
		// Lost the compare-and-set race: another request for the same party
		// signed between our read and our write. Report the current state,
		// same shape as the pre-check path.
		e.audit(ctx, cmd, models.AttemptFailed, outcome.ProviderPayload, ErrAlreadySigned.Error())
		res := &SignResult{AlreadySigned: true}
		if current, rerr := e.store.GetMandate(ctx, mandate.Id); rerr == nil {
			res.Status = current.Status
			res.SignedAt = current.SignedAt
			res.IsComplete = current.IsComplete()
		}
		return res, ErrAlreadySigned
	}

	attemptOutcome := models.AttemptSuccess
	if outcome.Fallback {
		attemptOutcome = models.AttemptFallbackSimple
	}
	e.audit(ctx, cmd, attemptOutcome, outcome.ProviderPayload, "")

	// Re-read for the authoritative post-write state: the completion decision
	// was made inside the conditional update.
	updated, err := e.store.GetMandate(ctx, mandate.Id)
	if err != nil {
		return nil, &StorageError{Op: "reload mandate", Err: err}
	}

	e.notify(cmd.Role, updated.Id)

	return &SignResult{
		Status:              updated.Status,
		SignedAt:            updated.SignedAt,
		IsComplete:          updated.IsComplete(),
		Fallback:            outcome.Fallback,
		ProviderOperationID: updated.ProviderOperationId,
	}, nil
}

// audit appends one attempt row. Append failures are surfaced to operational
// logging only; they never change the result returned to the caller.
func (e *Engine) audit(ctx context.Context, cmd SignCommand, outcome string, payload []byte, errMsg string) {
	entry := &models.SignatureAttemptLog{
		MandateId:       cmd.MandateID,
		PartyRole:       string(cmd.Role),
		UserId:          cmd.CallerID,
		Outcome:         outcome,
		ProviderPayload: payload,
	}
	if errMsg != "" {
		entry.ErrorMessage = &errMsg
	}
	if cmd.Origin != "" {
		entry.RequestOrigin = &cmd.Origin
	}
	if err := e.store.AppendAttempt(ctx, entry); err != nil {
		e.log.Error("signature audit append failed",
			zap.String("mandate_id", cmd.MandateID),
			zap.String("party_role", string(cmd.Role)),
			zap.String("outcome", outcome),
			zap.Error(err))
	}
}

// notify informs the notifier fire-and-forget, detached from the request
// context so a client disconnect does not drop the event.
func (e *Engine) notify(role Role, mandateID string) {
	if e.notifier == nil {
		return
	}
	event := EventOwnerSigned
	if role == RoleAgency {
		event = EventAgencySigned
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := e.notifier.Notify(ctx, event, mandateID); err != nil {
			e.log.Warn("signature notification failed",
				zap.String("event", event),
				zap.String("mandate_id", mandateID),
				zap.Error(err))
		}
	}()
}

func authorized(m *models.Mandate, role Role, callerID string) bool {
	switch role {
	case RoleOwner:
		return callerID != "" && callerID == m.OwnerId
	case RoleAgency:
		return callerID != "" && callerID == m.Agency.UserId
	}
	return false
}

func signedAtFor(m *models.Mandate, role Role) *time.Time {
	if role == RoleOwner {
		return m.OwnerSignedAt
	}
	return m.AgencySignedAt
}

func providerRequestFor(m *models.Mandate, cmd SignCommand) ProviderRequest {
	contact := m.Owner.Email
	if cmd.Role == RoleAgency {
		contact = m.Agency.User.Email
	}
	return ProviderRequest{
		DocumentType:  "mandate",
		DocumentID:    m.Id,
		SignerContact: contact,
		OTP:           cmd.OTP,
		Metadata: map[string]string{
			"party_role":  string(cmd.Role),
			"property_id": m.PropertyId,
		},
	}
}
