package units

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sunnyysetia/patrolsim/core/dispatch"
	"github.com/sunnyysetia/patrolsim/core/incident"
	"github.com/sunnyysetia/patrolsim/core/patrol"
	"github.com/sunnyysetia/patrolsim/infra/logger"
)

func newCoordinator(t *testing.T) *dispatch.Coordinator {
	t.Helper()
	cfg := patrol.Config{FleetSize: 4}
	cfg.SetDefaults()
	sim, err := cfg.Build()
	if err != nil {
		t.Fatalf("build simulator: %v", err)
	}
	return dispatch.NewCoordinator(sim, incident.NewMemoryStore(), nil, nil, logger.NopLogger{})
}

func TestStatusHandlerReturnsFleet(t *testing.T) {
	h := NewStatusHandler(newCoordinator(t))
	req := httptest.NewRequest(http.MethodGet, "/api/units/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var units []dispatch.UnitStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &units); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(units) != 4 {
		t.Fatalf("expected 4 units, got %d", len(units))
	}
	for _, u := range units {
		if u.Status != dispatch.StatusAvailable {
			t.Fatalf("fresh fleet should be available: %+v", u)
		}
	}
}

func TestStatusHandlerReplayAt(t *testing.T) {
	h := NewStatusHandler(newCoordinator(t))
	req := httptest.NewRequest(http.MethodGet, "/api/units/status?at=2025-06-01T10:00:00Z", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/api/units/status?at=2025-06-01T10:00:00Z", nil))
	if rec.Body.String() != rec2.Body.String() {
		t.Fatal("replaying the same instant must render identical fleets")
	}
}

func TestStatusHandlerRejectsBadTimestamp(t *testing.T) {
	h := NewStatusHandler(newCoordinator(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/units/status?at=yesterday", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestStatusHandlerMethodNotAllowed(t *testing.T) {
	h := NewStatusHandler(newCoordinator(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/units/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d, want 405", rec.Code)
	}
}
