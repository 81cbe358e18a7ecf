package metrics

import "time"

// DispatchResult captures one nearest-unit dispatch decision.
type DispatchResult struct {
	IncidentID     string
	UnitID         string
	Assigned       bool
	DistanceMetres float64
	// Candidates is the number of idle units considered.
	Candidates int
	// Conflicts counts conditional writes lost before the decision stuck.
	Conflicts int
	Time      time.Time
}

// UnitStateEvent is a snapshot of one rendered unit.
type UnitStateEvent struct {
	UnitID string
	Lat    float64
	Lng    float64
	PathID string
	Status string
	Time   time.Time
}

// Sink records dispatch decisions and fleet snapshots for observability.
type Sink interface {
	RecordDispatchResult(res DispatchResult) error
	RecordUnitStates(states []UnitStateEvent) error
	RecordBusyUnits(busy, fleet int) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordDispatchResult(DispatchResult) error { return nil }
func (NopSink) RecordUnitStates([]UnitStateEvent) error   { return nil }
func (NopSink) RecordBusyUnits(int, int) error            { return nil }
