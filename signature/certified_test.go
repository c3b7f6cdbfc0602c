package signature

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func authThenSignServer(t *testing.T, signStatus int, signBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth":
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			if in["api_key"] != "secret-key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "short-lived"})
		case "/api/v1/signatures":
			if r.Header.Get("Authorization") != "Bearer short-lived" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(signStatus)
			_, _ = w.Write([]byte(signBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestCertifiedClientHappyPath(t *testing.T) {
	srv := authThenSignServer(t, http.StatusOK,
		`{"operation_id":"OP-42","signed_document_url":"https://sign.example.com/d.pdf"}`)
	defer srv.Close()

	client := NewCertifiedClient(CertifiedClientConfig{BaseURL: srv.URL, APIKey: "secret-key"})
	token, err := client.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	res, err := client.Sign(context.Background(), token, ProviderRequest{
		DocumentType: "mandate", DocumentID: "man-1", SignerContact: "owner@example.com", OTP: "123456",
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if res.OperationID != "OP-42" || res.SignedDocumentURL != "https://sign.example.com/d.pdf" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Raw) == 0 {
		t.Fatalf("raw provider payload must be kept for the audit row")
	}
}

func TestCertifiedClientClassifiesRejection(t *testing.T) {
	srv := authThenSignServer(t, http.StatusBadRequest,
		`{"code":"invalid_otp","message":"OTP expired"}`)
	defer srv.Close()

	client := NewCertifiedClient(CertifiedClientConfig{BaseURL: srv.URL, APIKey: "secret-key"})
	token, err := client.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	_, err = client.Sign(context.Background(), token, ProviderRequest{OTP: "000000"})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Kind != ProviderRejected || pe.Code != "invalid_otp" || pe.Message != "OTP expired" {
		t.Fatalf("rejection not classified: %+v", pe)
	}
}

func TestCertifiedClientClassifies5xxAsUnavailable(t *testing.T) {
	srv := authThenSignServer(t, http.StatusBadGateway, `upstream error`)
	defer srv.Close()

	client := NewCertifiedClient(CertifiedClientConfig{BaseURL: srv.URL, APIKey: "secret-key"})
	token, err := client.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	_, err = client.Sign(context.Background(), token, ProviderRequest{OTP: "123456"})
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != ProviderUnavailable {
		t.Fatalf("5xx must be unavailable, got %v", err)
	}
}

func TestCertifiedClientNetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewCertifiedClient(CertifiedClientConfig{BaseURL: srv.URL, APIKey: "secret-key"})
	_, err := client.Authenticate(context.Background())
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != ProviderUnavailable {
		t.Fatalf("network error must be unavailable, got %v", err)
	}
}

func TestCertifiedClientTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "late"})
	}))
	defer srv.Close()

	client := NewCertifiedClient(CertifiedClientConfig{
		BaseURL: srv.URL, APIKey: "secret-key", Timeout: 20 * time.Millisecond,
	})
	_, err := client.Authenticate(context.Background())
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != ProviderUnavailable {
		t.Fatalf("timeout must be unavailable, got %v", err)
	}
}

func TestCertifiedClientCallerCancellationPropagates(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel the request context.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()

	client := NewCertifiedClient(CertifiedClientConfig{BaseURL: srv.URL, APIKey: "secret-key"})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	_, err := client.Authenticate(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation must propagate, got %v", err)
	}
}

func TestCertifiedClientAuthRejectionOnBadCredential(t *testing.T) {
	srv := authThenSignServer(t, http.StatusOK, `{}`)
	defer srv.Close()

	client := NewCertifiedClient(CertifiedClientConfig{BaseURL: srv.URL, APIKey: "wrong"})
	_, err := client.Authenticate(context.Background())
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != ProviderRejected {
		t.Fatalf("credential refusal must be a rejection, got %v", err)
	}
}
