package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func upCheck(ctx context.Context) ComponentHealth {
	return ComponentHealth{Status: StatusUp}
}

func downCheck(ctx context.Context) ComponentHealth {
	return ComponentHealth{Status: StatusDown, Message: "connection refused"}
}

func degradedCheck(ctx context.Context) ComponentHealth {
	return ComponentHealth{Status: StatusDegraded, Message: "cache offline"}
}

func TestRunAggregation(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Check
		want   Status
	}{
		{
			name:   "all_up",
			checks: map[string]Check{"index": upCheck, "postgres": upCheck},
			want:   StatusUp,
		},
		{
			name:   "degraded_dependency",
			checks: map[string]Check{"index": upCheck, "redis": degradedCheck},
			want:   StatusDegraded,
		},
		{
			name:   "down_dominates_degraded",
			checks: map[string]Check{"index": upCheck, "redis": degradedCheck, "postgres": downCheck},
			want:   StatusDown,
		},
		{
			name:   "no_checks",
			checks: nil,
			want:   StatusUp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker()
			for name, check := range tt.checks {
				checker.Register(name, check)
			}
			report := checker.Run(context.Background())
			if report.Status != tt.want {
				t.Errorf("overall status = %q, want %q", report.Status, tt.want)
			}
			if len(report.Components) != len(tt.checks) {
				t.Errorf("got %d components, want %d", len(report.Components), len(tt.checks))
			}
		})
	}
}

func TestRunRecordsComponentDetails(t *testing.T) {
	checker := NewChecker()
	checker.Register("postgres", downCheck)

	report := checker.Run(context.Background())
	comp, ok := report.Components["postgres"]
	if !ok {
		t.Fatal("postgres component missing from report")
	}
	if comp.Status != StatusDown {
		t.Errorf("component status = %q, want %q", comp.Status, StatusDown)
	}
	if comp.Message != "connection refused" {
		t.Errorf("component message = %q, want %q", comp.Message, "connection refused")
	}
	if comp.Latency == "" {
		t.Error("component latency not recorded")
	}
	if report.Timestamp == "" {
		t.Error("report timestamp not set")
	}
}

func TestLiveHandlerAlwaysOK(t *testing.T) {
	checker := NewChecker()
	checker.Register("postgres", downCheck)

	rec := httptest.NewRecorder()
	checker.LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReadyHandler(t *testing.T) {
	tests := []struct {
		name       string
		check      Check
		wantStatus int
		wantReport Status
	}{
		{"ready", upCheck, http.StatusOK, StatusUp},
		{"not_ready", downCheck, http.StatusServiceUnavailable, StatusDown},
		{"degraded_not_ready", degradedCheck, http.StatusServiceUnavailable, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker()
			checker.Register("dep", tt.check)

			rec := httptest.NewRecorder()
			checker.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("readiness status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var report Report
			if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
				t.Fatalf("decoding report: %v", err)
			}
			if report.Status != tt.wantReport {
				t.Errorf("report status = %q, want %q", report.Status, tt.wantReport)
			}
		})
	}
}
