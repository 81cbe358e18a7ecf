package incidents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sunnyysetia/patrolsim/core/dispatch"
	"github.com/sunnyysetia/patrolsim/core/incident"
)

// Service is the slice of the dispatch coordinator the handlers need.
type Service interface {
	Report(ctx context.Context, lat, lng float64, description string) (incident.Incident, error)
	Incidents(ctx context.Context, f incident.Filter) ([]incident.Incident, error)
	Incident(ctx context.Context, id string) (incident.Incident, error)
	Resolve(ctx context.Context, id string) error
}

type reportRequest struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description"`
}

// NewHandler serves GET /api/incidents (list, ?open=true filters) and
// POST /api/incidents (report + dispatch).
func NewHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			f := incident.Filter{
				OpenOnly:       r.URL.Query().Get("open") == "true",
				AssignedUnitID: r.URL.Query().Get("unit_id"),
			}
			incs, err := svc.Incidents(r.Context(), f)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, incs)
		case http.MethodPost:
			var req reportRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			inc, err := svc.Report(r.Context(), req.Lat, req.Lng, req.Description)
			if errors.Is(err, dispatch.ErrInvalidLocation) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, inc)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// NewItemHandler serves GET /api/incidents/{id} and
// POST /api/incidents/{id}/close.
func NewItemHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/incidents/")
		id, action, _ := strings.Cut(rest, "/")
		if id == "" {
			http.NotFound(w, r)
			return
		}
		switch {
		case action == "" && r.Method == http.MethodGet:
			inc, err := svc.Incident(r.Context(), id)
			if errors.Is(err, incident.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, inc)
		case action == "close" && r.Method == http.MethodPost:
			err := svc.Resolve(r.Context(), id)
			if errors.Is(err, incident.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
