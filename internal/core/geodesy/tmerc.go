package geodesy

import (
	"fmt"
	"math"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

// maxNewtonIterations bounds the conformal-latitude inversion. It converges
// in 2-3 steps for any latitude short of the poles.
const maxNewtonIterations = 15

// TransverseMercator projects between grid coordinates and WGS 84 using the
// 6th-order Krüger series (Karney 2011). Truncation error stays well below a
// millimeter within a few thousand kilometers of the central meridian.
type TransverseMercator struct {
	params    domain.ProjectionParams
	ellipsoid Ellipsoid

	e     float64 // first eccentricity
	kA    float64 // k0 * rectifying radius
	lon0  float64 // central meridian, radians
	y0    float64 // k0*A*ξ at the origin latitude
	alpha [7]float64
	beta  [7]float64
}

// NewTransverseMercator validates p and precomputes the series coefficients.
func NewTransverseMercator(p domain.ProjectionParams) (*TransverseMercator, error) {
	ell := Ellipsoid{A: p.EllipsoidMajorAxis, B: p.EllipsoidMinorAxis}
	if err := ell.Validate(); err != nil {
		return nil, err
	}
	for name, v := range map[string]float64{
		"origin_lat": p.OriginLatDeg, "origin_lon": p.OriginLonDeg, "scale_factor": p.ScaleFactor,
		"false_easting": p.FalseEasting, "false_northing": p.FalseNorthing,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: projection %s must be finite", domain.ErrInvalidConfig, name)
		}
	}
	if p.ScaleFactor <= 0 {
		return nil, fmt.Errorf("%w: projection scale factor must be positive, got %g", domain.ErrInvalidConfig, p.ScaleFactor)
	}
	if p.OriginLatDeg <= -90 || p.OriginLatDeg >= 90 {
		return nil, fmt.Errorf("%w: projection origin latitude %g out of range", domain.ErrInvalidConfig, p.OriginLatDeg)
	}
	if p.OriginLonDeg < -180 || p.OriginLonDeg > 180 {
		return nil, fmt.Errorf("%w: projection origin longitude %g out of range", domain.ErrInvalidConfig, p.OriginLonDeg)
	}

	n := ell.ThirdFlattening()
	n2 := n * n
	n3 := n2 * n
	n4 := n3 * n
	n5 := n4 * n
	n6 := n5 * n

	tm := &TransverseMercator{
		params:    p,
		ellipsoid: ell,
		e:         ell.Eccentricity(),
		lon0:      DegreesToRadians(p.OriginLonDeg),
	}
	rectifying := ell.A / (1 + n) * (1 + n2/4 + n4/64 + n6/256)
	tm.kA = p.ScaleFactor * rectifying

	tm.alpha = [7]float64{0,
		n/2 - 2.0/3*n2 + 5.0/16*n3 + 41.0/180*n4 - 127.0/288*n5 + 7891.0/37800*n6,
		13.0/48*n2 - 3.0/5*n3 + 557.0/1440*n4 + 281.0/630*n5 - 1983433.0/1935360*n6,
		61.0/240*n3 - 103.0/140*n4 + 15061.0/26880*n5 + 167603.0/181440*n6,
		49561.0/161280*n4 - 179.0/168*n5 + 6601661.0/7257600*n6,
		34729.0/80640*n5 - 3418889.0/1995840*n6,
		212378941.0 / 319334400 * n6,
	}
	tm.beta = [7]float64{0,
		n/2 - 2.0/3*n2 + 37.0/96*n3 - 1.0/360*n4 - 81.0/512*n5 + 96199.0/604800*n6,
		1.0/48*n2 + 1.0/15*n3 - 437.0/1440*n4 + 46.0/105*n5 - 1118711.0/3870720*n6,
		17.0/480*n3 - 37.0/840*n4 - 209.0/4480*n5 + 5569.0/90720*n6,
		4397.0/161280*n4 - 11.0/504*n5 - 830251.0/7257600*n6,
		4583.0/161280*n5 - 108847.0/3991680*n6,
		20648693.0 / 638668800 * n6,
	}

	// Meridian distance of the origin latitude, in scaled grid units.
	xi0, _ := tm.gaussKruger(DegreesToRadians(p.OriginLatDeg), 0)
	tm.y0 = tm.kA * xi0

	return tm, nil
}

// Params returns the projection parameters.
func (tm *TransverseMercator) Params() domain.ProjectionParams {
	return tm.params
}

// ToGeographic converts a grid coordinate to latitude/longitude. ok is false,
// and the point holds NaN, when the input is not finite, the iteration does
// not converge, or the result falls outside the WGS 84 ranges.
func (tm *TransverseMercator) ToGeographic(pt domain.ProjectedPoint) (geo domain.GeoPoint, ok bool) {
	nan := domain.GeoPoint{Lat: math.NaN(), Lon: math.NaN()}
	if !finite(pt.Easting) || !finite(pt.Northing) {
		return nan, false
	}

	eta := (pt.Easting - tm.params.FalseEasting) / tm.kA
	xi := (pt.Northing - tm.params.FalseNorthing + tm.y0) / tm.kA

	xiP, etaP := xi, eta
	for j := 1; j <= 6; j++ {
		jf := float64(2 * j)
		xiP -= tm.beta[j] * math.Sin(jf*xi) * math.Cosh(jf*eta)
		etaP -= tm.beta[j] * math.Cos(jf*xi) * math.Sinh(jf*eta)
	}

	sinhEtaP := math.Sinh(etaP)
	sinXiP, cosXiP := math.Sincos(xiP)
	tauP := sinXiP / math.Hypot(sinhEtaP, cosXiP)

	tau, converged := tm.invertConformal(tauP)
	if !converged {
		return nan, false
	}

	lat := RadiansToDegrees(math.Atan(tau))
	lon := RadiansToDegrees(tm.lon0 + math.Atan2(sinhEtaP, cosXiP))
	if lon > 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}

	geo = domain.GeoPoint{Lat: lat, Lon: lon}
	if !geo.Valid() {
		return nan, false
	}
	return geo, true
}

// ToProjected converts latitude/longitude to a grid coordinate.
func (tm *TransverseMercator) ToProjected(geo domain.GeoPoint) (domain.ProjectedPoint, bool) {
	if !geo.Valid() || math.Abs(geo.Lat) == 90 {
		return domain.ProjectedPoint{Easting: math.NaN(), Northing: math.NaN()}, false
	}

	dLon := DegreesToRadians(geo.Lon) - tm.lon0
	dLon = math.Remainder(dLon, 2*math.Pi)
	if math.Abs(dLon) >= math.Pi/2 {
		// Beyond the projection's usable hemisphere.
		return domain.ProjectedPoint{Easting: math.NaN(), Northing: math.NaN()}, false
	}

	xi, eta := tm.gaussKruger(DegreesToRadians(geo.Lat), dLon)
	return domain.ProjectedPoint{
		Easting:  tm.params.FalseEasting + tm.kA*eta,
		Northing: tm.params.FalseNorthing + tm.kA*xi - tm.y0,
	}, true
}

// gaussKruger returns the normalized (ξ, η) for latitude phi and longitude
// offset dLon from the central meridian, both in radians.
func (tm *TransverseMercator) gaussKruger(phi, dLon float64) (xi, eta float64) {
	sinL, cosL := math.Sincos(dLon)

	tauP := tm.conformal(math.Tan(phi))
	xiP := math.Atan2(tauP, cosL)
	etaP := math.Asinh(sinL / math.Hypot(tauP, cosL))

	xi, eta = xiP, etaP
	for j := 1; j <= 6; j++ {
		jf := float64(2 * j)
		xi += tm.alpha[j] * math.Sin(jf*xiP) * math.Cosh(jf*etaP)
		eta += tm.alpha[j] * math.Cos(jf*xiP) * math.Sinh(jf*etaP)
	}
	return xi, eta
}

// conformal maps tan(φ) to tan(χ), the tangent of the conformal latitude.
func (tm *TransverseMercator) conformal(tau float64) float64 {
	sigma := math.Sinh(tm.e * math.Atanh(tm.e*tau/math.Sqrt(1+tau*tau)))
	return tau*math.Sqrt(1+sigma*sigma) - sigma*math.Sqrt(1+tau*tau)
}

// invertConformal solves conformal(τ) = τ' for τ by Newton's method.
func (tm *TransverseMercator) invertConformal(tauP float64) (float64, bool) {
	e2 := tm.e * tm.e
	tau := tauP
	for i := 0; i < maxNewtonIterations; i++ {
		tauI := tm.conformal(tau)
		delta := (tauP - tauI) / math.Sqrt(1+tauI*tauI) *
			(1 + (1-e2)*tau*tau) / ((1 - e2) * math.Sqrt(1+tau*tau))
		tau += delta
		if math.Abs(delta) <= 1e-12*math.Max(1, math.Abs(tau)) {
			return tau, finite(tau)
		}
	}
	return math.NaN(), false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
