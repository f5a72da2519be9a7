package geodesy_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/geodesy"
)

func mustHelmert(t *testing.T, p domain.HelmertParams) *geodesy.Helmert {
	t.Helper()
	h, err := geodesy.NewHelmert(p)
	if err != nil {
		t.Fatalf("NewHelmert: %v", err)
	}
	return h
}

func TestHelmert_ZeroRotationIdentity(t *testing.T) {
	h := mustHelmert(t, domain.HelmertParams{Scale: 1})

	for _, p := range [][2]float64{{0, 0}, {1234.56, -789.01}, {-1e6, 3e5}, {0.1, 0.2}} {
		x, y := h.Forward(p[0], p[1])
		if x != p[0] || y != p[1] {
			t.Errorf("expected (%v, %v) unchanged, got (%v, %v)", p[0], p[1], x, y)
		}
	}
}

func TestHelmert_QuarterTurn(t *testing.T) {
	h := mustHelmert(t, domain.HelmertParams{Scale: 2, RotationRadians: math.Pi / 2, TX: 10, TY: 20})

	x, y := h.Forward(1, 0)
	if math.Abs(x-10) > 1e-12 || math.Abs(y-22) > 1e-12 {
		t.Errorf("expected (10, 22), got (%v, %v)", x, y)
	}
}

func TestHelmert_RoundTrip(t *testing.T) {
	params := []domain.HelmertParams{
		{Scale: 1.000097549103, RotationRadians: geodesy.BearingGonsToRadians(398.9098)},
		{
			TX: 4458.9140, TY: 7317.3475, Scale: 1.000097549103,
			RotationRadians: geodesy.DegreesToRadians(359.01882),
			OriginX:         0.3710, OriginY: -0.3175, ZOffset: 25.3999,
		},
		{TX: -500, TY: 250, Scale: 0.5, RotationRadians: 2.5},
	}
	points := []domain.RawPoint{
		{X: 0, Y: 0},
		{X: 1523.417, Y: -2211.905, Z: domain.Float(412.3)},
		{X: -48211.2, Y: 39876.01},
		{X: 1e-3, Y: 5e5, Z: domain.Float(-12)},
	}

	for _, p := range params {
		h := mustHelmert(t, p)
		for _, raw := range points {
			back := h.InversePoint(h.ForwardPoint(raw))
			if !closeRel(back.X, raw.X) || !closeRel(back.Y, raw.Y) {
				t.Errorf("params %+v: expected (%v, %v), got (%v, %v)", p, raw.X, raw.Y, back.X, back.Y)
			}
			if (raw.Z == nil) != (back.Z == nil) {
				t.Fatalf("elevation presence changed for %+v", raw)
			}
			if raw.Z != nil && !closeRel(*back.Z, *raw.Z) {
				t.Errorf("expected z %v, got %v", *raw.Z, *back.Z)
			}
		}
	}
}

func TestHelmert_ElevationOffsetOnly(t *testing.T) {
	h := mustHelmert(t, domain.HelmertParams{Scale: 3, RotationRadians: 1, ZOffset: 25.3999})

	local := h.ForwardPoint(domain.RawPoint{X: 1, Y: 1, Z: domain.Float(100)})
	if local.Z == nil || math.Abs(*local.Z-125.3999) > 1e-12 {
		t.Errorf("expected z 125.3999, got %v", local.Z)
	}
	if h.ForwardPoint(domain.RawPoint{X: 1, Y: 1}).Z != nil {
		t.Error("expected missing elevation to stay missing")
	}
}

func TestHelmert_NaNPropagates(t *testing.T) {
	h := mustHelmert(t, domain.HelmertParams{Scale: 1, RotationRadians: 0.3})

	x, y := h.Forward(math.NaN(), 5)
	if !math.IsNaN(x) || !math.IsNaN(y) {
		t.Errorf("expected NaN output, got (%v, %v)", x, y)
	}
}

func TestNewHelmert_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    domain.HelmertParams
	}{
		{"zero scale", domain.HelmertParams{Scale: 0}},
		{"NaN rotation", domain.HelmertParams{Scale: 1, RotationRadians: math.NaN()}},
		{"infinite translation", domain.HelmertParams{Scale: 1, TX: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geodesy.NewHelmert(tt.p)
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestAngleConversions(t *testing.T) {
	if got := geodesy.GonsToRadians(200); math.Abs(got-math.Pi) > 1e-15 {
		t.Errorf("expected π, got %v", got)
	}
	want := (398.9098 - 400) * math.Pi / 200
	if got := geodesy.BearingGonsToRadians(398.9098); math.Abs(got-want) > 1e-15 {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := geodesy.BearingDegreesToRadians(359.01882); got >= 0 {
		t.Errorf("expected a small negative angle, got %v", got)
	}
}

func closeRel(got, want float64) bool {
	return math.Abs(got-want) <= 1e-9*math.Max(1, math.Abs(want))
}
