package signature

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Outcome is the tagged result of a signature attempt, consumed exactly once
// by the engine's transition logic. Fallback marks a certified attempt that
// degraded to a simple signature because the provider was unreachable.
type Outcome struct {
	Method              Method
	Fallback            bool
	SignedAt            time.Time
	ProviderOperationID string
	SignedDocumentURL   string
	ProviderPayload     json.RawMessage
}

// Strategy produces a signature outcome for the acting party using the
// requested method.
type Strategy struct {
	provider      Provider
	allowFallback bool
	log           *zap.Logger
	now           func() time.Time
}

func NewStrategy(provider Provider, allowFallback bool, log *zap.Logger) *Strategy {
	return &Strategy{
		provider:      provider,
		allowFallback: allowFallback,
		log:           log,
		now:           time.Now,
	}
}

// Execute runs the requested method.
//
// simple: returns now, no provider metadata, cannot fail.
//
// certified: exchanges the credential for a token and submits the OTP-backed
// request. An explicit provider rejection (bad OTP) is a hard *RejectedError;
// it never downgrades to a simple signature. Unavailability (network, timeout,
// 5xx) falls back to the simple outcome tagged Fallback=true, unless fallback
// is disabled by configuration.
func (s *Strategy) Execute(ctx context.Context, method Method, req ProviderRequest) (*Outcome, error) {
	if method != MethodCertified {
		return &Outcome{Method: MethodSimple, SignedAt: s.now().UTC()}, nil
	}

	result, err := s.certified(ctx, req)
	if err == nil {
		return &Outcome{
			Method:              MethodCertified,
			SignedAt:            s.now().UTC(),
			ProviderOperationID: result.OperationID,
			SignedDocumentURL:   result.SignedDocumentURL,
			ProviderPayload:     result.Raw,
		}, nil
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		// Caller cancellation or programmer error; abort, no fallback.
		return nil, err
	}
	if pe.Kind == ProviderRejected {
		return nil, &RejectedError{Code: pe.Code, Message: pe.Message}
	}
	if !s.allowFallback {
		return nil, pe
	}

	s.log.Warn("certified provider unavailable, falling back to simple signature",
		zap.String("document_id", req.DocumentID),
		zap.Error(pe))
	return &Outcome{Method: MethodSimple, Fallback: true, SignedAt: s.now().UTC()}, nil
}

func (s *Strategy) certified(ctx context.Context, req ProviderRequest) (*ProviderResult, error) {
	token, err := s.provider.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return s.provider.Sign(ctx, token, req)
}
