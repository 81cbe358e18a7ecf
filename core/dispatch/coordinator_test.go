package dispatch

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sunnyysetia/patrolsim/core/incident"
	"github.com/sunnyysetia/patrolsim/core/metrics"
	"github.com/sunnyysetia/patrolsim/internal/eventbus"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

func TestCoordinatorReportAssignsNearest(t *testing.T) {
	ctx := context.Background()
	sim := testSimulator(t, 8)
	store := incident.NewMemoryStore()
	bus := eventbus.New[Decision]()
	decisions := bus.Subscribe()
	c := NewCoordinator(sim, store, nil, bus, nopLogger{})
	at := time.UnixMilli(1700000000000)
	c.now = func() time.Time { return at }

	st0, _ := sim.PositionAt(0, at)
	inc, err := c.Report(ctx, st0.Lat, st0.Lng, "fire alarm")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if inc.AssignedUnitID != "UNIT-00" {
		t.Fatalf("expected UNIT-00, got %q", inc.AssignedUnitID)
	}
	if !inc.AssignedAt.Equal(at.UTC()) {
		t.Fatalf("assignment time %v, want %v", inc.AssignedAt, at.UTC())
	}

	stored, err := store.Get(ctx, inc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.AssignedUnitID != "UNIT-00" {
		t.Fatalf("assignment not persisted: %+v", stored)
	}

	dec := <-decisions
	if !dec.Assigned || dec.UnitID != "UNIT-00" || dec.IncidentID != inc.ID {
		t.Fatalf("unexpected decision event: %+v", dec)
	}
}

func TestCoordinatorReportValidatesLocation(t *testing.T) {
	c := NewCoordinator(testSimulator(t, 4), incident.NewMemoryStore(), nil, nil, nopLogger{})
	cases := [][2]float64{
		{math.NaN(), 174.76},
		{-36.85, math.Inf(1)},
		{91, 0},
		{0, 181},
	}
	for _, tc := range cases {
		if _, err := c.Report(context.Background(), tc[0], tc[1], ""); !errors.Is(err, ErrInvalidLocation) {
			t.Fatalf("expected ErrInvalidLocation for %v, got %v", tc, err)
		}
	}
}

func TestCoordinatorExhaustionLeavesUnassigned(t *testing.T) {
	ctx := context.Background()
	sim := testSimulator(t, 2)
	store := incident.NewMemoryStore()
	c := NewCoordinator(sim, store, nil, nil, nopLogger{})

	for i := 0; i < 2; i++ {
		if _, err := c.Report(ctx, -36.85, 174.76, ""); err != nil {
			t.Fatalf("report %d: %v", i, err)
		}
	}
	inc, err := c.Report(ctx, -36.85, 174.76, "third caller")
	if err != nil {
		t.Fatalf("report with exhausted fleet must not error: %v", err)
	}
	if inc.Assigned() {
		t.Fatalf("expected unassigned incident, got %+v", inc)
	}
}

// conflictingStore loses the first conditional write, as a concurrent
// dispatch would.
type conflictingStore struct {
	*incident.MemoryStore
	rejected bool
	rejectID string
}

func (s *conflictingStore) Assign(ctx context.Context, incidentID, unitID string, at time.Time) error {
	if !s.rejected {
		s.rejected = true
		s.rejectID = unitID
		return incident.ErrUnitBusy
	}
	return s.MemoryStore.Assign(ctx, incidentID, unitID, at)
}

func TestCoordinatorRetriesAfterLostWrite(t *testing.T) {
	ctx := context.Background()
	sim := testSimulator(t, 4)
	store := &conflictingStore{MemoryStore: incident.NewMemoryStore()}
	c := NewCoordinator(sim, store, nil, nil, nopLogger{})

	inc, err := c.Report(ctx, -36.85, 174.76, "")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !inc.Assigned() {
		t.Fatal("expected a fallback assignment after losing the first write")
	}
	if inc.AssignedUnitID == store.rejectID {
		t.Fatalf("retry must pick a different unit than the rejected %s", store.rejectID)
	}
}

func TestCoordinatorResolveFreesUnit(t *testing.T) {
	ctx := context.Background()
	sim := testSimulator(t, 1)
	store := incident.NewMemoryStore()
	c := NewCoordinator(sim, store, nil, nil, nopLogger{})

	inc, err := c.Report(ctx, -36.85, 174.76, "")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if inc.AssignedUnitID != "UNIT-00" {
		t.Fatalf("expected the only unit, got %q", inc.AssignedUnitID)
	}
	if err := c.Resolve(ctx, inc.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	next, err := c.Report(ctx, -36.85, 174.76, "")
	if err != nil {
		t.Fatalf("report after resolve: %v", err)
	}
	if next.AssignedUnitID != "UNIT-00" {
		t.Fatalf("resolved unit should be dispatchable again, got %q", next.AssignedUnitID)
	}
}

func TestCoordinatorSnapshotReflectsAssignments(t *testing.T) {
	ctx := context.Background()
	sim := testSimulator(t, 4)
	store := incident.NewMemoryStore()
	c := NewCoordinator(sim, store, nil, nil, nopLogger{})
	at := time.UnixMilli(1700000000000)
	c.now = func() time.Time { return at }

	st1, _ := sim.PositionAt(1, at)
	inc, err := c.Report(ctx, st1.Lat, st1.Lng, "")
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	units, err := c.Snapshot(ctx, at.Add(10*time.Second))
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(units) != 4 {
		t.Fatalf("expected 4 units, got %d", len(units))
	}
	busy := 0
	for _, u := range units {
		if u.Status == StatusBusy {
			busy++
			if u.ID != inc.AssignedUnitID || u.AssignedIncidentID != inc.ID {
				t.Fatalf("busy unit should carry the assignment: %+v", u)
			}
		}
	}
	if busy != 1 {
		t.Fatalf("expected 1 busy unit, got %d", busy)
	}
}

type capturingSink struct {
	states     [][]metrics.UnitStateEvent
	busy, size int
}

func (s *capturingSink) RecordDispatchResult(metrics.DispatchResult) error { return nil }

func (s *capturingSink) RecordUnitStates(states []metrics.UnitStateEvent) error {
	s.states = append(s.states, states)
	return nil
}

func (s *capturingSink) RecordBusyUnits(busy, fleet int) error {
	s.busy, s.size = busy, fleet
	return nil
}

func TestCoordinatorSnapshotRecordsUnitStates(t *testing.T) {
	ctx := context.Background()
	sim := testSimulator(t, 4)
	store := incident.NewMemoryStore()
	sink := &capturingSink{}
	c := NewCoordinator(sim, store, sink, nil, nopLogger{})
	at := time.UnixMilli(1700000000000)
	c.now = func() time.Time { return at }

	st2, _ := sim.PositionAt(2, at)
	if _, err := c.Report(ctx, st2.Lat, st2.Lng, ""); err != nil {
		t.Fatalf("report: %v", err)
	}

	if _, err := c.Snapshot(ctx, at); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(sink.states) != 1 {
		t.Fatalf("expected one unit-state batch, got %d", len(sink.states))
	}
	batch := sink.states[0]
	if len(batch) != 4 {
		t.Fatalf("expected 4 unit states, got %d", len(batch))
	}
	busyEvents := 0
	for _, ev := range batch {
		if ev.UnitID == "" || ev.PathID == "" {
			t.Fatalf("incomplete unit state event: %+v", ev)
		}
		if !ev.Time.Equal(at) {
			t.Fatalf("event time %v, want %v", ev.Time, at)
		}
		if ev.Status == StatusBusy {
			busyEvents++
		}
	}
	if busyEvents != 1 {
		t.Fatalf("expected 1 busy event, got %d", busyEvents)
	}
	if sink.busy != 1 || sink.size != 4 {
		t.Fatalf("busy gauge got (%d, %d), want (1, 4)", sink.busy, sink.size)
	}
}
