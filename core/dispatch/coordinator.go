package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/sunnyysetia/patrolsim/core/incident"
	"github.com/sunnyysetia/patrolsim/core/logger"
	"github.com/sunnyysetia/patrolsim/core/metrics"
	"github.com/sunnyysetia/patrolsim/core/patrol"
	"github.com/sunnyysetia/patrolsim/internal/eventbus"
)

// ErrInvalidLocation is returned for non-finite incident coordinates. The
// geometry engine propagates NaN, so validation happens here at the boundary.
var ErrInvalidLocation = errors.New("invalid incident location")

// Decision is the published outcome of one dispatch attempt.
type Decision struct {
	IncidentID     string    `json:"incident_id"`
	UnitID         string    `json:"unit_id,omitempty"`
	Assigned       bool      `json:"assigned"`
	DistanceMetres float64   `json:"distance_metres,omitempty"`
	Candidates     int       `json:"candidates"`
	Conflicts      int       `json:"conflicts,omitempty"`
	Time           time.Time `json:"time"`
}

// Coordinator drives the incident-creation flow: persist the report, read
// the busy set, pick the nearest idle unit and record the assignment with a
// conditional write. Lost writes are retried against the next-nearest unit,
// so two concurrent reports never keep the same unit.
type Coordinator struct {
	sim      *patrol.Simulator
	store    incident.Store
	assignor *Assignor
	sink     metrics.Sink
	bus      *eventbus.Bus[Decision]
	log      logger.Logger
	now      func() time.Time
}

// NewCoordinator wires the dispatch flow. sink and bus may be nil.
func NewCoordinator(sim *patrol.Simulator, store incident.Store, sink metrics.Sink, bus *eventbus.Bus[Decision], log logger.Logger) *Coordinator {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Coordinator{
		sim:      sim,
		store:    store,
		assignor: NewAssignor(sim),
		sink:     sink,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// Report creates an incident and dispatches the nearest available unit.
// Exhaustion of the fleet is not an error: the incident is persisted
// unassigned and the zero-valued assignment fields say so.
func (c *Coordinator) Report(ctx context.Context, lat, lng float64, description string) (incident.Incident, error) {
	if !finite(lat) || !finite(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return incident.Incident{}, fmt.Errorf("%w: (%f, %f)", ErrInvalidLocation, lat, lng)
	}
	inc := incident.Incident{
		ID:          uuid.NewString(),
		Lat:         lat,
		Lng:         lng,
		Description: description,
		ReportedAt:  c.now().UTC(),
	}
	if err := c.store.Create(ctx, inc); err != nil {
		return incident.Incident{}, fmt.Errorf("create incident: %w", err)
	}
	return c.dispatch(ctx, inc)
}

func (c *Coordinator) dispatch(ctx context.Context, inc incident.Incident) (incident.Incident, error) {
	busy, err := c.store.BusyUnits(ctx)
	if err != nil {
		return inc, fmt.Errorf("read busy set: %w", err)
	}

	at := c.now().UTC()
	conflicts := 0
	for {
		unitID, dist, candidates := c.assignor.nearestDistance(inc.Location(), busy, at)
		if unitID == "" {
			c.log.Warnf("no units available for incident %s", inc.ID)
			c.publish(Decision{IncidentID: inc.ID, Candidates: candidates, Conflicts: conflicts, Time: at})
			return inc, nil
		}
		err := c.store.Assign(ctx, inc.ID, unitID, at)
		if errors.Is(err, incident.ErrUnitBusy) {
			// Lost the conditional write to a concurrent dispatch.
			// Exclude the unit and pick again.
			busy[unitID] = struct{}{}
			conflicts++
			continue
		}
		if err != nil {
			return inc, fmt.Errorf("assign unit: %w", err)
		}
		inc.AssignedUnitID = unitID
		inc.AssignedAt = at
		c.log.Infof("incident %s assigned to %s (%.0fm away, %d candidates)", inc.ID, unitID, dist, candidates)
		dec := Decision{
			IncidentID:     inc.ID,
			UnitID:         unitID,
			Assigned:       true,
			DistanceMetres: dist,
			Candidates:     candidates,
			Conflicts:      conflicts,
			Time:           at,
		}
		c.publish(dec)
		return inc, nil
	}
}

func (c *Coordinator) publish(dec Decision) {
	if err := c.sink.RecordDispatchResult(metrics.DispatchResult{
		IncidentID:     dec.IncidentID,
		UnitID:         dec.UnitID,
		Assigned:       dec.Assigned,
		DistanceMetres: dec.DistanceMetres,
		Candidates:     dec.Candidates,
		Conflicts:      dec.Conflicts,
		Time:           dec.Time,
	}); err != nil {
		c.log.Errorf("record dispatch result: %v", err)
	}
	if c.bus != nil {
		c.bus.Publish(dec)
	}
}

// Snapshot renders the fleet at the given instant from the store's open
// assignments.
func (c *Coordinator) Snapshot(ctx context.Context, now time.Time) ([]UnitStatus, error) {
	open, err := c.store.OpenAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("read open assignments: %w", err)
	}
	units, err := Snapshot(c.sim, open, now)
	if err != nil {
		return nil, err
	}
	busyCount := 0
	states := make([]metrics.UnitStateEvent, len(units))
	for i, u := range units {
		if u.Status == StatusBusy {
			busyCount++
		}
		states[i] = metrics.UnitStateEvent{
			UnitID: u.ID,
			Lat:    u.Lat,
			Lng:    u.Lng,
			PathID: u.PathID,
			Status: u.Status,
			Time:   now,
		}
	}
	if err := c.sink.RecordUnitStates(states); err != nil {
		c.log.Errorf("record unit states: %v", err)
	}
	if err := c.sink.RecordBusyUnits(busyCount, len(units)); err != nil {
		c.log.Errorf("record busy units: %v", err)
	}
	return units, nil
}

// Resolve closes an incident, freeing its unit for dispatch.
func (c *Coordinator) Resolve(ctx context.Context, incidentID string) error {
	return c.store.CloseIncident(ctx, incidentID, c.now().UTC())
}

// Incidents lists persisted incidents.
func (c *Coordinator) Incidents(ctx context.Context, f incident.Filter) ([]incident.Incident, error) {
	return c.store.List(ctx, f)
}

// Incident fetches one incident by id.
func (c *Coordinator) Incident(ctx context.Context, id string) (incident.Incident, error) {
	return c.store.Get(ctx, id)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
