package dispatch

import (
	"time"

	"github.com/sunnyysetia/patrolsim/core/geo"
	"github.com/sunnyysetia/patrolsim/core/incident"
	"github.com/sunnyysetia/patrolsim/core/patrol"
)

// Unit status values in the rendered fleet view.
const (
	StatusAvailable = "available"
	StatusBusy      = "busy"
)

// UnitStatus is the rendered view of one unit, computed fresh per query.
type UnitStatus struct {
	ID                 string    `json:"id"`
	Lat                float64   `json:"lat"`
	Lng                float64   `json:"lng"`
	PathID             string    `json:"path_id"`
	Status             string    `json:"status"`
	LastUpdated        time.Time `json:"last_updated"`
	AssignedIncidentID string    `json:"assigned_incident_id,omitempty"`
}

// arrivedThresholdMetres treats a unit departing this close to its target as
// already there, avoiding a divide by zero in the travel fraction.
const arrivedThresholdMetres = 1.0

// ProjectBusyUnit reconstructs the visible trajectory of an assigned unit.
// The unit departs from its idle position at the assignment instant and moves
// toward the target at its patrol speed; once there it stays rendered at the
// target until the store clears the assignment. The projector itself never
// clears anything.
func ProjectBusyUnit(sim *patrol.Simulator, index int, asg incident.Assignment, now time.Time) (UnitStatus, error) {
	assignedAt := asg.AssignedAt
	if assignedAt.IsZero() {
		// Store records without a timestamp are treated as assigned now.
		assignedAt = now
	}
	departed, err := sim.PositionAt(index, assignedAt)
	if err != nil {
		return UnitStatus{}, err
	}
	pos := travelPosition(departed.Point(), asg.Target, departed.SpeedMPS, now.Sub(assignedAt))
	return UnitStatus{
		ID:                 departed.ID,
		Lat:                pos.Lat,
		Lng:                pos.Lng,
		PathID:             departed.PathID,
		Status:             StatusBusy,
		LastUpdated:        now,
		AssignedIncidentID: asg.IncidentID,
	}, nil
}

// travelPosition interpolates between departure and target given constant
// speed travel for the elapsed duration. The interpolation is planar in
// lat/lng space, acceptable at urban scale.
func travelPosition(departure, target geo.Point, speedMPS float64, elapsed time.Duration) geo.Point {
	distance := geo.DistanceMetres(departure, target)
	if distance <= arrivedThresholdMetres {
		return target
	}
	seconds := elapsed.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	travelled := seconds * speedMPS
	if travelled > distance {
		travelled = distance
	}
	fraction := travelled / distance
	return geo.Point{
		Lat: departure.Lat + fraction*(target.Lat-departure.Lat),
		Lng: departure.Lng + fraction*(target.Lng-departure.Lng),
	}
}

// Snapshot renders the whole fleet at the given instant: busy units are
// projected along their assignment, the rest patrol their paths. When the
// store holds more than one open assignment for a unit (a data anomaly) the
// most recent by assignment time wins.
func Snapshot(sim *patrol.Simulator, open map[string][]incident.Assignment, now time.Time) ([]UnitStatus, error) {
	units := make([]UnitStatus, 0, sim.FleetSize())
	for i := 0; i < sim.FleetSize(); i++ {
		id := patrol.UnitID(i)
		if asgs, busy := open[id]; busy && len(asgs) > 0 {
			st, err := ProjectBusyUnit(sim, i, latestAssignment(asgs), now)
			if err != nil {
				return nil, err
			}
			units = append(units, st)
			continue
		}
		base, err := sim.PositionAt(i, now)
		if err != nil {
			return nil, err
		}
		units = append(units, UnitStatus{
			ID:          base.ID,
			Lat:         base.Lat,
			Lng:         base.Lng,
			PathID:      base.PathID,
			Status:      StatusAvailable,
			LastUpdated: now,
		})
	}
	return units, nil
}

func latestAssignment(asgs []incident.Assignment) incident.Assignment {
	latest := asgs[0]
	for _, a := range asgs[1:] {
		if a.AssignedAt.After(latest.AssignedAt) {
			latest = a
		}
	}
	return latest
}
