package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sunnyysetia/patrolsim/core/incident"
)

func openTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "incidents.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestDB(t)
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	inc := incident.Incident{ID: "a", Lat: -36.85, Lng: 174.76, Description: "alarm", ReportedAt: t0}
	if err := s.Create(ctx, inc); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "a" || got.Lat != -36.85 || got.Description != "alarm" || !got.ReportedAt.Equal(t0) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, incident.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteConditionalAssign(t *testing.T) {
	ctx := context.Background()
	s := openTestDB(t)
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for _, id := range []string{"a", "b"} {
		if err := s.Create(ctx, incident.Incident{ID: id, ReportedAt: t0}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if err := s.Assign(ctx, "a", "UNIT-01", t0); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if err := s.Assign(ctx, "b", "UNIT-01", t0); !errors.Is(err, incident.ErrUnitBusy) {
		t.Fatalf("unique index should reject the second claim, got %v", err)
	}
	if err := s.Assign(ctx, "a", "UNIT-02", t0); !errors.Is(err, incident.ErrAlreadyAssigned) {
		t.Fatalf("expected ErrAlreadyAssigned, got %v", err)
	}
	if err := s.Assign(ctx, "missing", "UNIT-02", t0); !errors.Is(err, incident.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	busy, err := s.BusyUnits(ctx)
	if err != nil {
		t.Fatalf("busy units: %v", err)
	}
	if _, ok := busy["UNIT-01"]; !ok || len(busy) != 1 {
		t.Fatalf("busy set wrong: %v", busy)
	}
}

func TestSQLiteCloseFreesUnitForReassignment(t *testing.T) {
	ctx := context.Background()
	s := openTestDB(t)
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	_ = s.Create(ctx, incident.Incident{ID: "a", ReportedAt: t0})
	_ = s.Create(ctx, incident.Incident{ID: "b", ReportedAt: t0.Add(time.Minute)})

	if err := s.Assign(ctx, "a", "UNIT-01", t0); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := s.CloseIncident(ctx, "a", t0.Add(time.Hour)); err != nil {
		t.Fatalf("close: %v", err)
	}
	// The partial index only covers open incidents, so the unit is free.
	if err := s.Assign(ctx, "b", "UNIT-01", t0.Add(2*time.Hour)); err != nil {
		t.Fatalf("reassign after close: %v", err)
	}
}

func TestSQLiteListAndOpenAssignments(t *testing.T) {
	ctx := context.Background()
	s := openTestDB(t)
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	_ = s.Create(ctx, incident.Incident{ID: "a", Lat: 1, Lng: 2, ReportedAt: t0})
	_ = s.Create(ctx, incident.Incident{ID: "b", ReportedAt: t0.Add(time.Minute)})
	_ = s.Assign(ctx, "a", "UNIT-03", t0.Add(time.Second))
	_ = s.CloseIncident(ctx, "b", t0.Add(time.Hour))

	all, err := s.List(ctx, incident.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "a" {
		t.Fatalf("expected chronological list of 2, got %+v", all)
	}
	open, err := s.List(ctx, incident.Filter{OpenOnly: true})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 || open[0].ID != "a" {
		t.Fatalf("expected only a open, got %+v", open)
	}

	asgs, err := s.OpenAssignments(ctx)
	if err != nil {
		t.Fatalf("open assignments: %v", err)
	}
	got := asgs["UNIT-03"]
	if len(got) != 1 || got[0].IncidentID != "a" || got[0].Target.Lat != 1 {
		t.Fatalf("unexpected assignments: %+v", got)
	}
	if !got[0].AssignedAt.Equal(t0.Add(time.Second)) {
		t.Fatalf("assigned at %v, want %v", got[0].AssignedAt, t0.Add(time.Second))
	}
}

func TestStoreConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	if cfg.Type != "memory" {
		t.Fatalf("default type %q", cfg.Type)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	bad := Config{Type: "dynamo"}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unknown store type")
	}
}
