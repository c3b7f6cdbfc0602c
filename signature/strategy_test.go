package signature

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestStrategySimpleNeedsNoProvider(t *testing.T) {
	provider := &fakeProvider{authErr: errors.New("must not be called")}
	s := NewStrategy(provider, true, zap.NewNop())

	before := time.Now().UTC()
	out, err := s.Execute(context.Background(), MethodSimple, ProviderRequest{DocumentID: "man-1"})
	if err != nil {
		t.Fatalf("simple: %v", err)
	}
	if out.Method != MethodSimple || out.Fallback {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.ProviderOperationID != "" || out.SignedDocumentURL != "" {
		t.Fatalf("simple signature must carry no provider metadata")
	}
	if out.SignedAt.Before(before) || out.SignedAt.After(time.Now().UTC()) {
		t.Fatalf("timestamp out of range: %v", out.SignedAt)
	}
}

func TestStrategyCertifiedSuccess(t *testing.T) {
	provider := &fakeProvider{result: &ProviderResult{
		OperationID:       "OP-7",
		SignedDocumentURL: "https://sign.example.com/doc.pdf",
	}}
	s := NewStrategy(provider, true, zap.NewNop())

	out, err := s.Execute(context.Background(), MethodCertified, ProviderRequest{
		DocumentID: "man-1", OTP: "123456",
	})
	if err != nil {
		t.Fatalf("certified: %v", err)
	}
	if out.Method != MethodCertified || out.Fallback {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.ProviderOperationID != "OP-7" || out.SignedDocumentURL != "https://sign.example.com/doc.pdf" {
		t.Fatalf("provider metadata not carried: %+v", out)
	}
	if provider.lastToken != "tok-1" {
		t.Fatalf("sign must be called with the exchanged token")
	}
}

func TestStrategyRejectionNeverFallsBack(t *testing.T) {
	provider := &fakeProvider{signErr: &ProviderError{
		Kind: ProviderRejected, Code: "invalid_otp", Message: "OTP mismatch",
	}}
	s := NewStrategy(provider, true, zap.NewNop())

	out, err := s.Execute(context.Background(), MethodCertified, ProviderRequest{OTP: "000000"})
	if out != nil {
		t.Fatalf("no outcome on rejection, got %+v", out)
	}
	var rejected *RejectedError
	if !errors.As(err, &rejected) || rejected.Code != "invalid_otp" {
		t.Fatalf("expected RejectedError(invalid_otp), got %v", err)
	}
}

func TestStrategyUnavailableFallsBackTagged(t *testing.T) {
	for _, name := range []string{"sign unavailable", "auth unavailable"} {
		t.Run(name, func(t *testing.T) {
			provider := &fakeProvider{}
			pe := &ProviderError{Kind: ProviderUnavailable, Message: "down"}
			if name == "auth unavailable" {
				provider.authErr = pe
			} else {
				provider.signErr = pe
			}
			s := NewStrategy(provider, true, zap.NewNop())

			out, err := s.Execute(context.Background(), MethodCertified, ProviderRequest{OTP: "123456"})
			if err != nil {
				t.Fatalf("fallback: %v", err)
			}
			if out.Method != MethodSimple || !out.Fallback {
				t.Fatalf("expected tagged simple fallback, got %+v", out)
			}
		})
	}
}

func TestStrategyFallbackDisabled(t *testing.T) {
	provider := &fakeProvider{signErr: &ProviderError{Kind: ProviderUnavailable, Message: "down"}}
	s := NewStrategy(provider, false, zap.NewNop())

	_, err := s.Execute(context.Background(), MethodCertified, ProviderRequest{OTP: "123456"})
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != ProviderUnavailable {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestStrategyCancellationAborts(t *testing.T) {
	provider := &fakeProvider{signErr: context.Canceled}
	s := NewStrategy(provider, true, zap.NewNop())

	out, err := s.Execute(context.Background(), MethodCertified, ProviderRequest{OTP: "123456"})
	if out != nil {
		t.Fatalf("cancellation must not produce a fallback outcome")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
