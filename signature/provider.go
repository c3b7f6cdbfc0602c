package signature

import "fmt"

// ProviderErrorKind classifies a provider failure.
type ProviderErrorKind string

const (
	// ProviderRejected means the provider evaluated the request and said no
	// (bad OTP, validation failure). Must never trigger fallback.
	ProviderRejected ProviderErrorKind = "rejected"

	// ProviderUnavailable means the provider could not be reached to evaluate
	// the request at all (network error, timeout, 5xx).
	ProviderUnavailable ProviderErrorKind = "unavailable"
)

// ProviderError is the structured failure returned by Provider
// implementations.
type ProviderError struct {
	Kind    ProviderErrorKind
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("provider %s (%s): %s", e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("provider %s: %s", e.Kind, msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }
