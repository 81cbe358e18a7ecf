// Package incident defines the incident record and the store port the
// dispatch core talks to. The store is an external collaborator: it owns
// durability and the atomicity of assignment writes.
package incident

import (
	"context"
	"errors"
	"time"

	"github.com/sunnyysetia/patrolsim/core/geo"
)

var (
	// ErrNotFound is returned when an incident id does not exist.
	ErrNotFound = errors.New("incident not found")
	// ErrUnitBusy is returned by conditional assignment when the unit
	// already holds an open assignment. Dispatch treats it as a lost race
	// and retries with another unit.
	ErrUnitBusy = errors.New("unit already assigned")
	// ErrAlreadyAssigned is returned when the incident itself is no longer
	// assignable.
	ErrAlreadyAssigned = errors.New("incident already assigned or closed")
)

// Incident is a reported event requiring a unit.
type Incident struct {
	ID             string    `json:"id"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	Description    string    `json:"description,omitempty"`
	ReportedAt     time.Time `json:"reported_at"`
	AssignedUnitID string    `json:"assigned_unit_id,omitempty"`
	AssignedAt     time.Time `json:"assigned_at,omitempty"`
	ClosedAt       time.Time `json:"closed_at,omitempty"`
}

// Open reports whether the incident has not been closed yet.
func (i Incident) Open() bool { return i.ClosedAt.IsZero() }

// Assigned reports whether a unit has been dispatched to the incident.
func (i Incident) Assigned() bool { return i.AssignedUnitID != "" }

// Location returns the incident coordinates.
func (i Incident) Location() geo.Point { return geo.Point{Lat: i.Lat, Lng: i.Lng} }

// Assignment is the view of an open incident the renderer consumes: where a
// busy unit is heading and when it departed.
type Assignment struct {
	IncidentID string
	Target     geo.Point
	AssignedAt time.Time
}

// Filter narrows List results.
type Filter struct {
	// OpenOnly keeps incidents that have not been closed.
	OpenOnly bool
	// AssignedUnitID keeps incidents assigned to the given unit.
	AssignedUnitID string
}

// Store persists incident records. Assign must be conditional: the write
// fails with ErrUnitBusy when the unit already has an open assignment, which
// closes the check-then-act race between concurrent dispatches at the store
// boundary rather than inside the pure core.
type Store interface {
	Create(ctx context.Context, inc Incident) error
	Get(ctx context.Context, id string) (Incident, error)
	List(ctx context.Context, f Filter) ([]Incident, error)
	Assign(ctx context.Context, incidentID, unitID string, at time.Time) error
	CloseIncident(ctx context.Context, incidentID string, at time.Time) error
	// BusyUnits returns the identifiers of units with an open assignment.
	BusyUnits(ctx context.Context) (map[string]struct{}, error)
	// OpenAssignments returns every open assignment keyed by unit id. A
	// well-behaved store yields at most one per unit; the renderer resolves
	// anomalies deterministically.
	OpenAssignments(ctx context.Context) (map[string][]Assignment, error)
	Close() error
}
