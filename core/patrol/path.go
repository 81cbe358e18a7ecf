package patrol

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/sunnyysetia/patrolsim/core/geo"
)

// Path is the curve a unit idles along. Progress is a scalar locating a point
// on the path: metres travelled for a loop, an angle in radians for an orbit.
type Path interface {
	ID() string
	PositionAtProgress(progress float64) geo.Point
}

type segment struct {
	start  geo.Point
	end    geo.Point
	length float64
}

// LoopPath is a closed polyline. Segment lengths and the total length are
// precomputed once when the path is built, not per query.
type LoopPath struct {
	id       string
	segments []segment
	total    float64
}

// NewLoopPath builds a loop from an ordered list of points. The polyline is
// closed: if the last point does not equal the first it is closed implicitly.
func NewLoopPath(id string, points []geo.Point) *LoopPath {
	if len(points) > 1 && points[len(points)-1] != points[0] {
		points = append(points, points[0])
	}
	segs := make([]segment, 0, len(points)-1)
	lengths := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		l := geo.DistanceMetres(points[i-1], points[i])
		segs = append(segs, segment{start: points[i-1], end: points[i], length: l})
		lengths = append(lengths, l)
	}
	return &LoopPath{id: id, segments: segs, total: floats.Sum(lengths)}
}

// loopFromRegion derives a rectangular patrol loop from the region extents.
func loopFromRegion(r Region) *LoopPath {
	halfLat := r.LatExtent / 2
	halfLng := r.LngExtent / 2
	return NewLoopPath(r.ID, []geo.Point{
		{Lat: r.CentreLat + halfLat, Lng: r.CentreLng - halfLng},
		{Lat: r.CentreLat + halfLat, Lng: r.CentreLng + halfLng},
		{Lat: r.CentreLat - halfLat, Lng: r.CentreLng + halfLng},
		{Lat: r.CentreLat - halfLat, Lng: r.CentreLng - halfLng},
	})
}

func (p *LoopPath) ID() string { return p.id }

// TotalLength is the loop perimeter in metres.
func (p *LoopPath) TotalLength() float64 { return p.total }

// PositionAtProgress maps metres travelled along the loop, modulo the total
// length, to a point by walking the segments in order and interpolating
// within the one containing the remaining distance.
func (p *LoopPath) PositionAtProgress(progress float64) geo.Point {
	if len(p.segments) == 0 || p.total <= 0 {
		if len(p.segments) > 0 {
			return p.segments[0].start
		}
		return geo.Point{}
	}
	remaining := math.Mod(progress, p.total)
	if remaining < 0 {
		remaining += p.total
	}
	for _, s := range p.segments {
		if remaining <= s.length {
			t := 0.0
			if s.length > 0 {
				t = remaining / s.length
			}
			return geo.Point{
				Lat: s.start.Lat + t*(s.end.Lat-s.start.Lat),
				Lng: s.start.Lng + t*(s.end.Lng-s.start.Lng),
			}
		}
		remaining -= s.length
	}
	// Floating point drift can leave a sliver of unresolved distance.
	// Fall back to the final point instead of an undefined position.
	return p.segments[len(p.segments)-1].end
}

// OrbitPath is a smooth ellipse around the region centre. Position is a
// direct trigonometric function of an angle, so no metrics are precomputed.
type OrbitPath struct {
	id     string
	centre geo.Point
	latAmp float64
	lngAmp float64
}

// NewOrbitPath builds an ellipse with the given per-axis amplitudes.
func NewOrbitPath(id string, centre geo.Point, latAmp, lngAmp float64) *OrbitPath {
	return &OrbitPath{id: id, centre: centre, latAmp: latAmp, lngAmp: lngAmp}
}

func orbitFromRegion(r Region) *OrbitPath {
	return NewOrbitPath(r.ID, geo.Point{Lat: r.CentreLat, Lng: r.CentreLng}, r.LatExtent/2, r.LngExtent/2)
}

func (p *OrbitPath) ID() string { return p.id }

// PositionAtProgress interprets progress as an angle in radians on the full
// ellipse.
func (p *OrbitPath) PositionAtProgress(progress float64) geo.Point {
	return p.positionAt(progress, 1)
}

// positionAt scales the ellipse amplitudes, letting units sharing the path
// orbit at distinct radii. A small secondary harmonic adds visual variation.
func (p *OrbitPath) positionAt(angle, scale float64) geo.Point {
	latAmp := p.latAmp * scale
	lngAmp := p.lngAmp * scale
	return geo.Point{
		Lat: p.centre.Lat + latAmp*math.Sin(angle) + 0.08*latAmp*math.Sin(3*angle),
		Lng: p.centre.Lng + lngAmp*math.Cos(angle) + 0.08*lngAmp*math.Cos(2*angle),
	}
}
