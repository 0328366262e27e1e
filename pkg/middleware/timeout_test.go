package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestTimeoutPassesFastRequests verifies handlers finishing in time are
// untouched.
func TestTimeoutPassesFastRequests(t *testing.T) {
	h := Timeout(time.Second)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// TestTimeoutRejectsSlowRequests verifies a handler exceeding the
// deadline yields 504 and a cancelled context.
func TestTimeoutRejectsSlowRequests(t *testing.T) {
	ctxCancelled := make(chan bool, 1)
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			ctxCancelled <- true
		case <-time.After(2 * time.Second):
			ctxCancelled <- false
		}
	})
	h := Timeout(20 * time.Millisecond)(slow)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=slow", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
	if !<-ctxCancelled {
		t.Error("handler context was not cancelled at the deadline")
	}
}
