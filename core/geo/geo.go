package geo

import "math"

// earthRadiusMetres is the mean Earth radius used for great-circle distances.
const earthRadiusMetres = 6371000.0

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMetres returns the great-circle distance between a and b using the
// haversine formula. Non-finite inputs propagate NaN; validation is the
// caller's responsibility.
func DistanceMetres(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMetres * c
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
