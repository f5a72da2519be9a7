package geodesy

import (
	"fmt"
	"math"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

const (
	fullCircleGons    = 400.0
	fullCircleDegrees = 360.0
)

// GonsToRadians converts an angle in gons (1 gon = π/200 rad).
func GonsToRadians(g float64) float64 {
	return g * math.Pi / 200
}

// DegreesToRadians converts an angle in degrees.
func DegreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}

// RadiansToDegrees converts an angle in radians.
func RadiansToDegrees(r float64) float64 {
	return r * 180 / math.Pi
}

// BearingGonsToRadians converts a rotation given as a bearing against the
// full circle, e.g. 398.9098 gon, to the signed angle (398.9098-400) gon.
func BearingGonsToRadians(g float64) float64 {
	return GonsToRadians(g - fullCircleGons)
}

// BearingDegreesToRadians is BearingGonsToRadians for degree bearings.
func BearingDegreesToRadians(d float64) float64 {
	return DegreesToRadians(d - fullCircleDegrees)
}

// Helmert is a 2D similarity transform between the raw survey frame and the
// local frame. Trigonometry is evaluated once at construction.
type Helmert struct {
	params   domain.HelmertParams
	cos, sin float64
}

// NewHelmert validates p and returns a ready transform.
func NewHelmert(p domain.HelmertParams) (*Helmert, error) {
	for name, v := range map[string]float64{
		"tx": p.TX, "ty": p.TY, "rotation": p.RotationRadians, "scale": p.Scale,
		"origin_x": p.OriginX, "origin_y": p.OriginY, "z_offset": p.ZOffset,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: helmert %s must be finite", domain.ErrInvalidConfig, name)
		}
	}
	if p.Scale == 0 {
		return nil, fmt.Errorf("%w: helmert scale must be non-zero", domain.ErrInvalidConfig)
	}
	return &Helmert{
		params: p,
		cos:    math.Cos(p.RotationRadians),
		sin:    math.Sin(p.RotationRadians),
	}, nil
}

// Params returns the parameters the transform was built with.
func (h *Helmert) Params() domain.HelmertParams {
	return h.params
}

// Forward maps raw (x, y) to local (x', y'). NaN inputs propagate.
func (h *Helmert) Forward(x, y float64) (float64, float64) {
	dx := x - h.params.OriginX
	dy := y - h.params.OriginY
	s := h.params.Scale
	return h.params.TX + s*(dx*h.cos-dy*h.sin),
		h.params.TY + s*(dx*h.sin+dy*h.cos)
}

// Inverse maps local (x', y') back to raw (x, y).
func (h *Helmert) Inverse(x, y float64) (float64, float64) {
	u := (x - h.params.TX) / h.params.Scale
	v := (y - h.params.TY) / h.params.Scale
	return h.params.OriginX + u*h.cos + v*h.sin,
		h.params.OriginY - u*h.sin + v*h.cos
}

// ForwardPoint transforms a raw point. The elevation is shifted by the
// configured offset and otherwise untouched.
func (h *Helmert) ForwardPoint(p domain.RawPoint) domain.LocalPoint {
	x, y := h.Forward(p.X, p.Y)
	out := domain.LocalPoint{X: x, Y: y}
	if p.Z != nil {
		out.Z = domain.Float(*p.Z + h.params.ZOffset)
	}
	return out
}

// InversePoint undoes ForwardPoint.
func (h *Helmert) InversePoint(p domain.LocalPoint) domain.RawPoint {
	x, y := h.Inverse(p.X, p.Y)
	out := domain.RawPoint{X: x, Y: y}
	if p.Z != nil {
		out.Z = domain.Float(*p.Z - h.params.ZOffset)
	}
	return out
}
