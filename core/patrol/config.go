package patrol

import "fmt"

// Config holds the process-wide fleet parameters. They are fixed at startup;
// nothing here mutates at runtime.
type Config struct {
	// FleetSize is the number of simulated units.
	FleetSize int `json:"fleet_size"`
	// PathShape selects "loop" or "orbit" patrol paths.
	PathShape string `json:"path_shape"`
	// Regions overrides the default patrol zone catalog when non-empty.
	Regions []Region `json:"regions"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.FleetSize == 0 {
		c.FleetSize = 80
	}
	if c.PathShape == "" {
		c.PathShape = string(ShapeLoop)
	}
	if len(c.Regions) == 0 {
		c.Regions = DefaultRegions()
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.FleetSize <= 0 || c.FleetSize > 100 {
		return fmt.Errorf("fleet_size must be in 1..100, got %d", c.FleetSize)
	}
	if s := Shape(c.PathShape); s != ShapeLoop && s != ShapeOrbit {
		return fmt.Errorf("unknown path_shape %q", c.PathShape)
	}
	for _, r := range c.Regions {
		if r.ID == "" {
			return fmt.Errorf("region id is required")
		}
		if r.LatExtent <= 0 || r.LngExtent <= 0 {
			return fmt.Errorf("region %s: extents must be positive", r.ID)
		}
	}
	return nil
}

// Build derives the immutable simulator from the configuration.
func (c Config) Build() (*Simulator, error) {
	catalog, err := NewCatalog(c.Regions, Shape(c.PathShape))
	if err != nil {
		return nil, err
	}
	return NewSimulator(c.FleetSize, catalog), nil
}
