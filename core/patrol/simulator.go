package patrol

import (
	"math"
	"time"

	"github.com/sunnyysetia/patrolsim/core/geo"
)

// BaseUnitState is a unit's idle position at a specific instant. It only
// exists as a return value; for a fixed (index, time) pair it is pure and
// reproducible.
type BaseUnitState struct {
	ID       string
	Index    int
	Lat      float64
	Lng      float64
	PathID   string
	SpeedMPS float64
}

// Point returns the state's coordinates.
func (s BaseUnitState) Point() geo.Point { return geo.Point{Lat: s.Lat, Lng: s.Lng} }

// Simulator is the temporal position function over a fixed fleet and path
// catalog. It holds no mutable state: every position is recomputed from the
// unit's seed and the wall-clock time, which makes replaying a position at an
// arbitrary past instant free.
type Simulator struct {
	fleetSize int
	catalog   *Catalog
}

// NewSimulator builds a simulator for the given fleet size and catalog.
func NewSimulator(fleetSize int, catalog *Catalog) *Simulator {
	return &Simulator{fleetSize: fleetSize, catalog: catalog}
}

// FleetSize returns the configured number of units.
func (s *Simulator) FleetSize() int { return s.fleetSize }

// Catalog returns the patrol path catalog.
func (s *Simulator) Catalog() *Catalog { return s.catalog }

// PositionAt returns the idle state of the unit at the given instant.
// Out-of-range indices yield ErrUnknownUnit.
func (s *Simulator) PositionAt(index int, at time.Time) (BaseUnitState, error) {
	if index < 0 || index >= s.fleetSize {
		return BaseUnitState{}, ErrUnknownUnit
	}
	id := UnitID(index)
	seed := unitSeed(id)
	speed := speedFor(seed)
	path := s.catalog.PathFor(index)
	elapsed := elapsedSeconds(at)

	var pos geo.Point
	switch p := path.(type) {
	case *LoopPath:
		offset := math.Mod(float64(seed), p.TotalLength())
		progress := offset + elapsed*speed
		pos = p.PositionAtProgress(progress)
	case *OrbitPath:
		// One full orbit every 4-6 minutes, unit-specific.
		period := 240 + float64(seed%121)
		omega := 2 * math.Pi / period
		phase := 2 * math.Pi * float64(seed%360) / 360
		scale := 0.6 + float64(seed%40)/100
		pos = p.positionAt(omega*elapsed+phase, scale)
	default:
		pos = path.PositionAtProgress(elapsed * speed)
	}

	return BaseUnitState{
		ID:       id,
		Index:    index,
		Lat:      pos.Lat,
		Lng:      pos.Lng,
		PathID:   path.ID(),
		SpeedMPS: speed,
	}, nil
}

// PositionForID is PositionAt keyed by textual unit identifier.
func (s *Simulator) PositionForID(id string, at time.Time) (BaseUnitState, error) {
	idx, err := ParseUnitID(id, s.fleetSize)
	if err != nil {
		return BaseUnitState{}, err
	}
	return s.PositionAt(idx, at)
}

func elapsedSeconds(at time.Time) float64 {
	return float64(at.UnixMilli()) / 1000
}
