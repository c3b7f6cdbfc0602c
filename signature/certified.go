package signature

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultProviderTimeout = 30 * time.Second

// CertifiedClientConfig configures the HTTP client for the certified
// signature provider. The credential is explicit, injected at construction;
// there is no package-level token.
type CertifiedClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // applied to each call; defaults to 30s
}

// CertifiedClient talks to the external certified-signature service.
// It implements Provider.
type CertifiedClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCertifiedClient(cfg CertifiedClientConfig) *CertifiedClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &CertifiedClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type providerErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Authenticate exchanges the service credential for a short-lived token.
func (c *CertifiedClient) Authenticate(ctx context.Context) (string, error) {
	body, _ := json.Marshal(map[string]string{"api_key": c.apiKey})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.transportError(ctx, err)
	}
	if err := classifyStatus(resp.StatusCode, raw); err != nil {
		return "", err
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &ProviderError{Kind: ProviderUnavailable, Message: "malformed auth response", Err: err}
	}
	if out.Token == "" {
		return "", &ProviderError{Kind: ProviderUnavailable, Message: "auth response missing token"}
	}
	return out.Token, nil
}

// Sign submits the OTP-backed signature request.
func (c *CertifiedClient) Sign(ctx context.Context, token string, sr ProviderRequest) (*ProviderResult, error) {
	body, _ := json.Marshal(map[string]any{
		"document_type":  sr.DocumentType,
		"document_id":    sr.DocumentID,
		"signer_contact": sr.SignerContact,
		"otp":            sr.OTP,
		"metadata":       sr.Metadata,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/signatures", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	if err := classifyStatus(resp.StatusCode, raw); err != nil {
		return nil, err
	}

	var out struct {
		OperationID       string `json:"operation_id"`
		SignedDocumentURL string `json:"signed_document_url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ProviderError{Kind: ProviderUnavailable, Message: "malformed sign response", Err: err}
	}
	if out.OperationID == "" {
		return nil, &ProviderError{Kind: ProviderUnavailable, Message: "sign response missing operation_id"}
	}
	return &ProviderResult{
		OperationID:       out.OperationID,
		SignedDocumentURL: out.SignedDocumentURL,
		Raw:               json.RawMessage(raw),
	}, nil
}

// transportError maps network failures. Caller cancellation propagates as-is
// so the engine aborts instead of falling back; everything else (timeouts
// included) counts as unavailability.
func (c *CertifiedClient) transportError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return ctx.Err()
	}
	return &ProviderError{Kind: ProviderUnavailable, Message: "provider unreachable", Err: err}
}

// classifyStatus maps an HTTP status to the rejection/unavailability split:
// 4xx means the provider evaluated the request and refused it, 5xx means it
// could not.
func classifyStatus(status int, raw []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 500:
		return &ProviderError{
			Kind:    ProviderUnavailable,
			Code:    fmt.Sprintf("http_%d", status),
			Message: "provider error response",
		}
	default:
		var eb providerErrorBody
		_ = json.Unmarshal(raw, &eb)
		if eb.Code == "" {
			eb.Code = fmt.Sprintf("http_%d", status)
		}
		if eb.Message == "" {
			eb.Message = "request rejected by provider"
		}
		return &ProviderError{Kind: ProviderRejected, Code: eb.Code, Message: eb.Message}
	}
}
