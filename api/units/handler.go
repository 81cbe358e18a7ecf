package units

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sunnyysetia/patrolsim/core/dispatch"
)

// Fleet renders the unit snapshot for a query instant.
type Fleet interface {
	Snapshot(ctx context.Context, now time.Time) ([]dispatch.UnitStatus, error)
}

// NewStatusHandler returns an HTTP handler exposing the fleet view via
// GET /api/units/status. An optional ?at=RFC3339 query replays the fleet at
// a past instant; positions are pure functions of time, so this is free.
func NewStatusHandler(fleet Fleet) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		now := time.Now().UTC()
		if s := r.URL.Query().Get("at"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				http.Error(w, "invalid at timestamp", http.StatusBadRequest)
				return
			}
			now = t.UTC()
		}
		units, err := fleet.Snapshot(r.Context(), now)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(units); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
