package geodesy_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/geodesy"
)

// utm31 is UTM zone 31N on WGS 84.
var utm31 = domain.ProjectionParams{
	OriginLatDeg:       0,
	OriginLonDeg:       3,
	ScaleFactor:        0.9996,
	FalseEasting:       500000,
	FalseNorthing:      0,
	EllipsoidMajorAxis: geodesy.WGS84.A,
	EllipsoidMinorAxis: geodesy.WGS84.B,
}

// siteGrid is the mine-site projection the default configuration ships with.
var siteGrid = domain.ProjectionParams{
	OriginLatDeg:       53.41320278,
	OriginLonDeg:       69,
	ScaleFactor:        0.9996,
	FalseEasting:       500000,
	FalseNorthing:      7317.3475,
	EllipsoidMajorAxis: geodesy.WGS84.A,
	EllipsoidMinorAxis: geodesy.WGS84.B,
}

func mustTM(t *testing.T, p domain.ProjectionParams) *geodesy.TransverseMercator {
	t.Helper()
	tm, err := geodesy.NewTransverseMercator(p)
	if err != nil {
		t.Fatalf("NewTransverseMercator: %v", err)
	}
	return tm
}

func TestTransverseMercator_UTMReferenceValues(t *testing.T) {
	tm := mustTM(t, utm31)

	tests := []struct {
		name     string
		geo      domain.GeoPoint
		easting  float64
		northing float64
		tol      float64
	}{
		{"central meridian on equator", domain.GeoPoint{Lat: 0, Lon: 3}, 500000, 0, 1e-6},
		{"greenwich on equator", domain.GeoPoint{Lat: 0, Lon: 0}, 166021.4431, 0, 1e-3},
		{"central meridian at 45N", domain.GeoPoint{Lat: 45, Lon: 3}, 500000, 0.9996 * 4984944.378, 1e-2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := tm.ToProjected(tt.geo)
			if !ok {
				t.Fatal("expected projection to succeed")
			}
			if math.Abs(p.Easting-tt.easting) > tt.tol || math.Abs(p.Northing-tt.northing) > tt.tol {
				t.Errorf("expected (%.4f, %.4f), got (%.4f, %.4f)", tt.easting, tt.northing, p.Easting, p.Northing)
			}
		})
	}
}

func TestTransverseMercator_OriginMapsToFalseOrigin(t *testing.T) {
	tm := mustTM(t, siteGrid)

	geo, ok := tm.ToGeographic(domain.ProjectedPoint{Easting: 500000, Northing: 7317.3475})
	if !ok {
		t.Fatal("expected conversion to succeed")
	}
	if math.Abs(geo.Lat-53.41320278) > 1e-10 || math.Abs(geo.Lon-69) > 1e-10 {
		t.Errorf("expected (53.41320278, 69), got (%.10f, %.10f)", geo.Lat, geo.Lon)
	}
}

func TestTransverseMercator_RoundTripWithin50km(t *testing.T) {
	tm := mustTM(t, siteGrid)

	for de := -50000.0; de <= 50000; de += 12500 {
		for dn := -50000.0; dn <= 50000; dn += 12500 {
			in := domain.ProjectedPoint{Easting: 500000 + de, Northing: 7317.3475 + dn}
			geo, ok := tm.ToGeographic(in)
			if !ok {
				t.Fatalf("ToGeographic(%+v) failed", in)
			}
			out, ok := tm.ToProjected(geo)
			if !ok {
				t.Fatalf("ToProjected(%+v) failed", geo)
			}
			if math.Abs(out.Easting-in.Easting) > 1e-6 || math.Abs(out.Northing-in.Northing) > 1e-6 {
				t.Errorf("round trip of %+v drifted to %+v", in, out)
			}
		}
	}
}

func TestTransverseMercator_EastWestSymmetry(t *testing.T) {
	tm := mustTM(t, siteGrid)

	east, _ := tm.ToProjected(domain.GeoPoint{Lat: 53.5, Lon: 69.3})
	west, _ := tm.ToProjected(domain.GeoPoint{Lat: 53.5, Lon: 68.7})
	if math.Abs((east.Easting-500000)+(west.Easting-500000)) > 1e-6 {
		t.Errorf("expected eastings symmetric about 500000, got %.6f and %.6f", east.Easting, west.Easting)
	}
	if math.Abs(east.Northing-west.Northing) > 1e-6 {
		t.Errorf("expected equal northings, got %.6f and %.6f", east.Northing, west.Northing)
	}
}

func TestTransverseMercator_NaNInput(t *testing.T) {
	tm := mustTM(t, siteGrid)

	geo, ok := tm.ToGeographic(domain.ProjectedPoint{Easting: math.NaN(), Northing: 1})
	if ok {
		t.Fatal("expected failure for NaN input")
	}
	if !math.IsNaN(geo.Lat) || !math.IsNaN(geo.Lon) {
		t.Errorf("expected NaN result, got %+v", geo)
	}

	if _, ok := tm.ToProjected(domain.GeoPoint{Lat: 91, Lon: 0}); ok {
		t.Error("expected failure for latitude out of range")
	}
}

func TestNewTransverseMercator_InvalidEllipsoid(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
	}{
		{"minor equals major", 6378137, 6378137},
		{"minor exceeds major", 6356752, 6378137},
		{"zero major", 0, 6356752},
		{"negative minor", 6378137, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := siteGrid
			p.EllipsoidMajorAxis, p.EllipsoidMinorAxis = tt.a, tt.b
			if _, err := geodesy.NewTransverseMercator(p); !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestNewTransverseMercator_InvalidScale(t *testing.T) {
	p := siteGrid
	p.ScaleFactor = 0
	if _, err := geodesy.NewTransverseMercator(p); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEllipsoidFromFlattening(t *testing.T) {
	e := geodesy.EllipsoidFromFlattening(6378137, 298.257223563)
	if math.Abs(e.B-geodesy.WGS84.B) > 1e-6 {
		t.Errorf("expected b %.6f, got %.6f", geodesy.WGS84.B, e.B)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
