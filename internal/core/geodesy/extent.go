package geodesy

import (
	"math"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

type axisAccumulator struct {
	min, max float64
	n        int
}

func (a *axisAccumulator) add(v float64) {
	if !finite(v) {
		return
	}
	if a.n == 0 {
		a.min, a.max = v, v
	} else {
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
	}
	a.n++
}

func (a *axisAccumulator) extent() *domain.AxisExtent {
	if a.n == 0 {
		return nil
	}
	return &domain.AxisExtent{
		Min:    a.min,
		Max:    a.max,
		Span:   a.max - a.min,
		Center: (a.min + a.max) / 2,
	}
}

// ComputeExtent returns min, max, span and midpoint per axis, or nil for an
// empty batch. Axes without a single finite sample are left nil.
func ComputeExtent(points []domain.LocalPoint) *domain.ExtentStats {
	if len(points) == 0 {
		return nil
	}
	var x, y, z axisAccumulator
	for _, p := range points {
		x.add(p.X)
		y.add(p.Y)
		if p.Z != nil {
			z.add(*p.Z)
		}
	}
	stats := &domain.ExtentStats{X: x.extent(), Y: y.extent(), Z: z.extent()}
	if stats.X == nil && stats.Y == nil && stats.Z == nil {
		return nil
	}
	return stats
}
