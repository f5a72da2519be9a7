package geodesy

import (
	"fmt"
	"math"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

// Ellipsoid is a biaxial reference ellipsoid given by its semi-axes in meters.
type Ellipsoid struct {
	A float64 // semi-major axis
	B float64 // semi-minor axis
}

// WGS84 is the WGS 84 reference ellipsoid.
var WGS84 = Ellipsoid{A: 6378137.0, B: 6356752.314245179}

// Validate rejects degenerate ellipsoids: both axes must be positive and
// finite, and the minor axis strictly shorter than the major axis.
func (e Ellipsoid) Validate() error {
	if math.IsNaN(e.A) || math.IsNaN(e.B) || math.IsInf(e.A, 0) || math.IsInf(e.B, 0) {
		return fmt.Errorf("%w: ellipsoid axes must be finite", domain.ErrInvalidConfig)
	}
	if e.A <= 0 || e.B <= 0 {
		return fmt.Errorf("%w: ellipsoid axes must be positive (a=%g, b=%g)", domain.ErrInvalidConfig, e.A, e.B)
	}
	if e.B >= e.A {
		return fmt.Errorf("%w: ellipsoid minor axis %g must be shorter than major axis %g", domain.ErrInvalidConfig, e.B, e.A)
	}
	return nil
}

// Flattening returns f = (a-b)/a.
func (e Ellipsoid) Flattening() float64 {
	return (e.A - e.B) / e.A
}

// ThirdFlattening returns n = (a-b)/(a+b).
func (e Ellipsoid) ThirdFlattening() float64 {
	return (e.A - e.B) / (e.A + e.B)
}

// Eccentricity returns the first eccentricity e.
func (e Ellipsoid) Eccentricity() float64 {
	f := e.Flattening()
	return math.Sqrt(f * (2 - f))
}

// EllipsoidFromFlattening builds an ellipsoid from a and 1/f.
func EllipsoidFromFlattening(a, inverseFlattening float64) Ellipsoid {
	return Ellipsoid{A: a, B: a * (1 - 1/inverseFlattening)}
}
