// Package patrol implements the patrol position simulator: a static catalog
// of patrol paths derived from named regions and a pure temporal position
// function mapping (unit index, time) to a point on the unit's path.
package patrol

// Region is a named patrol zone. Regions are immutable and defined at
// process start; each one is converted into exactly one patrol path.
type Region struct {
	ID        string  `json:"id"`
	CentreLat float64 `json:"centre_lat"`
	CentreLng float64 `json:"centre_lng"`
	LatExtent float64 `json:"lat_extent"`
	LngExtent float64 `json:"lng_extent"`
}

// DefaultRegions covers the central Auckland operating area. The order is
// significant: units are spread over paths by index modulo catalog size.
func DefaultRegions() []Region {
	return []Region{
		{ID: "cbd", CentreLat: -36.8485, CentreLng: 174.7633, LatExtent: 0.010, LngExtent: 0.014},
		{ID: "ponsonby", CentreLat: -36.8561, CentreLng: 174.7390, LatExtent: 0.009, LngExtent: 0.012},
		{ID: "newmarket", CentreLat: -36.8692, CentreLng: 174.7767, LatExtent: 0.008, LngExtent: 0.011},
		{ID: "mt-eden", CentreLat: -36.8770, CentreLng: 174.7520, LatExtent: 0.010, LngExtent: 0.013},
		{ID: "parnell", CentreLat: -36.8550, CentreLng: 174.7831, LatExtent: 0.008, LngExtent: 0.010},
		{ID: "grey-lynn", CentreLat: -36.8634, CentreLng: 174.7290, LatExtent: 0.009, LngExtent: 0.012},
		{ID: "remuera", CentreLat: -36.8790, CentreLng: 174.8010, LatExtent: 0.011, LngExtent: 0.015},
		{ID: "epsom", CentreLat: -36.8890, CentreLng: 174.7690, LatExtent: 0.010, LngExtent: 0.012},
	}
}
