package domain

// RawPoint is a coordinate in the site's raw survey frame.
// Z is nil when the source row had no elevation.
type RawPoint struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z *float64 `json:"z,omitempty"`
}

// LocalPoint is a coordinate in the local display frame. It is only
// produced by applying a Helmert transform to a RawPoint, or by
// normalizing a batch of such points.
type LocalPoint struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z *float64 `json:"z,omitempty"`
}

// ProjectedPoint is a grid coordinate on a Transverse Mercator projection.
// Fields are named so callers can never swap the axes by position.
type ProjectedPoint struct {
	Easting  float64 `json:"easting"`
	Northing float64 `json:"northing"`
}

// Float returns a pointer to v. Used for optional elevations.
func Float(v float64) *float64 {
	return &v
}
