// Package geospatial has spherical-earth helpers for distances between
// WGS 84 positions. They are accurate to about 0.5%, which is enough for
// radius searches and reference-point tolerances of a few meters over short
// distances.
package geospatial

import "math"

// MeanEarthRadius is the IUGG mean radius R1 in meters.
const MeanEarthRadius = 6371008.8

// metersPerDegreeLat is one degree of arc on the mean sphere.
const metersPerDegreeLat = MeanEarthRadius * math.Pi / 180

// Haversine returns the great-circle distance in meters between two
// positions given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := toRad(lat1), toRad(lat2)
	dPhi := phi2 - phi1
	dLambda := toRad(lon2 - lon1)

	h := math.Pow(math.Sin(dPhi/2), 2) + math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	// Rounding can push h marginally past 1 for antipodal points.
	h = math.Min(h, 1)
	return 2 * MeanEarthRadius * math.Asin(math.Sqrt(h))
}

// BoundingBox returns a lat/lon box containing every point within
// radiusMeters of (lat, lon). It is an index prefilter: callers still apply
// an exact distance check. Near the poles, or when the box would cross the
// antimeridian, the longitude range widens to [-180, 180].
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	dLat := radiusMeters / metersPerDegreeLat
	minLat = math.Max(lat-dLat, -90)
	maxLat = math.Min(lat+dLat, 90)

	cosLat := math.Cos(toRad(math.Max(math.Abs(minLat), math.Abs(maxLat))))
	if cosLat < 1e-9 {
		return minLat, -180, maxLat, 180
	}
	dLon := dLat / cosLat
	minLon, maxLon = lon-dLon, lon+dLon
	if minLon < -180 || maxLon > 180 {
		return minLat, -180, maxLat, 180
	}
	return minLat, minLon, maxLat, maxLon
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
