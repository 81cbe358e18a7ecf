// Package dispatch selects the nearest idle unit for new incidents and
// reconstructs busy-unit trajectories for fleet status rendering. Every
// operation is a pure function over explicit inputs; the only shared state
// is the external incident store consulted by the Coordinator.
package dispatch

import (
	"time"

	"github.com/sunnyysetia/patrolsim/core/geo"
	"github.com/sunnyysetia/patrolsim/core/patrol"
)

// Assignor picks the nearest available unit for an incident.
type Assignor struct {
	sim *patrol.Simulator
}

// NewAssignor returns an Assignor over the given fleet simulator.
func NewAssignor(sim *patrol.Simulator) *Assignor {
	return &Assignor{sim: sim}
}

// NearestUnit returns the idle unit closest to loc at the given instant.
// Units in the busy set are skipped. Ties break towards the lowest index.
// ok is false when no unit is available, a valid outcome the caller handles
// by leaving the incident unassigned.
func (a *Assignor) NearestUnit(loc geo.Point, busy map[string]struct{}, at time.Time) (string, bool) {
	best := ""
	bestDist := 0.0
	for i := 0; i < a.sim.FleetSize(); i++ {
		id := patrol.UnitID(i)
		if _, isBusy := busy[id]; isBusy {
			continue
		}
		st, err := a.sim.PositionAt(i, at)
		if err != nil {
			continue
		}
		d := geo.DistanceMetres(st.Point(), loc)
		if best == "" || d < bestDist {
			best = id
			bestDist = d
		}
	}
	return best, best != ""
}

// nearestDistance mirrors NearestUnit but also reports the winning distance
// and the size of the candidate set, for decision logging.
func (a *Assignor) nearestDistance(loc geo.Point, busy map[string]struct{}, at time.Time) (string, float64, int) {
	best := ""
	bestDist := 0.0
	candidates := 0
	for i := 0; i < a.sim.FleetSize(); i++ {
		id := patrol.UnitID(i)
		if _, isBusy := busy[id]; isBusy {
			continue
		}
		st, err := a.sim.PositionAt(i, at)
		if err != nil {
			continue
		}
		candidates++
		d := geo.DistanceMetres(st.Point(), loc)
		if best == "" || d < bestDist {
			best = id
			bestDist = d
		}
	}
	return best, bestDist, candidates
}
