package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhookPostsEvent(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second)
	if err := w.Notify(context.Background(), "owner_signed", "man-1"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got["event"] != "owner_signed" || got["mandate_id"] != "man-1" {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestWebhookReportsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second)
	if err := w.Notify(context.Background(), "agency_signed", "man-1"); err == nil {
		t.Fatalf("expected error on 500")
	}
}
