package signature

import (
	"errors"
	"fmt"
)

var (
	// ErrMandateNotFound is returned when the mandate id does not resolve.
	ErrMandateNotFound = errors.New("mandate not found")

	// ErrUnauthorized is returned when the caller is neither the registered
	// owner nor the agency's acting user for the mandate.
	ErrUnauthorized = errors.New("caller is not a signing party of this mandate")

	// ErrAlreadySigned is returned when the acting party's signed-at column is
	// already set, whether detected at the pre-check or at the conditional
	// update. Callers should treat it as an idempotent no-op, not a failure.
	ErrAlreadySigned = errors.New("party has already signed this mandate")

	// ErrOTPRequired is returned when a certified signature is requested
	// without a one-time password.
	ErrOTPRequired = errors.New("otp is required for certified signature")
)

// RejectedError is returned when the certified provider explicitly rejected
// the request (bad OTP, provider-side validation). It never triggers the
// simple-signature fallback.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("certified signature rejected (%s): %s", e.Code, e.Message)
	}
	return "certified signature rejected: " + e.Message
}

// StorageError wraps a persistence failure. Nothing is reported as signed
// unless the conditional update was confirmed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }
