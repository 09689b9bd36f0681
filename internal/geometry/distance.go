package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// MetersPerMile converts between the miles used by search radii and the
// meters orb works in.
const MetersPerMile = 1609.344

// Point builds an orb point from latitude/longitude. orb stores [lon, lat].
func Point(lat, lng float64) orb.Point {
	return orb.Point{lng, lat}
}

// DistanceMiles returns the great-circle distance between two points.
func DistanceMiles(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b) / MetersPerMile
}

// RadiusBound returns the bounding box that contains every point within
// miles of center. It is used to prefilter candidates in SQL before the
// exact distance check.
func RadiusBound(center orb.Point, miles float64) orb.Bound {
	return geo.NewBoundAroundPoint(center, miles*MetersPerMile)
}

// WithinRadius reports whether p lies within miles of center.
func WithinRadius(center, p orb.Point, miles float64) bool {
	if !RadiusBound(center, miles).Contains(p) {
		return false
	}
	return DistanceMiles(center, p) <= miles
}

// ValidCoordinates rejects the zero point and out-of-range values that
// listing feeds use as placeholders for "unknown".
func ValidCoordinates(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
