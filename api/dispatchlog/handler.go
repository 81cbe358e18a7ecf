package dispatchlog

import (
	"encoding/json"
	"net/http"

	"github.com/sunnyysetia/patrolsim/core/dispatch"
)

// NewHandler exposes recent dispatch decisions via GET /api/dispatch/log.
func NewHandler(log *dispatch.DecisionLog) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(log.Recent()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
