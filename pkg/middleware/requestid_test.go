package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestRequestIDGenerated verifies a missing X-Request-ID is generated,
// stored in the context, and echoed in the response.
func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search", nil))

	if seen == "" {
		t.Fatal("no request ID in handler context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}
}

// TestRequestIDHonoured verifies a client-supplied ID is kept.
func TestRequestIDHonoured(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "client-supplied-42" {
		t.Errorf("context request ID = %q, want client-supplied-42", seen)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "client-supplied-42" {
		t.Errorf("response header = %q, want client-supplied-42", got)
	}
}

// TestRequestIDsAreUnique verifies generated IDs differ per request.
func TestRequestIDsAreUnique(t *testing.T) {
	ids := make(map[string]bool)
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[GetRequestID(r.Context())] = true
	}))

	for i := 0; i < 10; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if len(ids) != 10 {
		t.Errorf("got %d distinct IDs for 10 requests", len(ids))
	}
}
