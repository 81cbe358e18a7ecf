package patrol

import "fmt"

// Shape selects the geometric kind of path derived from each region.
type Shape string

const (
	// ShapeLoop is the canonical rendering: a rectangular perimeter loop.
	ShapeLoop Shape = "loop"
	// ShapeOrbit renders units on an ellipse around the region centre.
	ShapeOrbit Shape = "orbit"
)

// Catalog is the ordered, immutable set of patrol paths derived from the
// region catalog at startup. A unit's path is paths[unitIndex mod len].
type Catalog struct {
	paths []Path
}

// NewCatalog derives one path per region using the configured shape.
func NewCatalog(regions []Region, shape Shape) (*Catalog, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("patrol catalog requires at least one region")
	}
	paths := make([]Path, 0, len(regions))
	for _, r := range regions {
		switch shape {
		case ShapeLoop, "":
			paths = append(paths, loopFromRegion(r))
		case ShapeOrbit:
			paths = append(paths, orbitFromRegion(r))
		default:
			return nil, fmt.Errorf("unknown path shape %q", shape)
		}
	}
	return &Catalog{paths: paths}, nil
}

// Len returns the number of paths in the catalog.
func (c *Catalog) Len() int { return len(c.paths) }

// PathFor returns the path patrolled by the unit at the given index.
func (c *Catalog) PathFor(unitIndex int) Path {
	return c.paths[unitIndex%len(c.paths)]
}
