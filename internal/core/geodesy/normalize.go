package geodesy

import (
	"math"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

// NormalizationOffset returns the minimum x and y over the batch. ok is
// false for an empty batch or one with no finite coordinates.
func NormalizationOffset(points []domain.LocalPoint) (minX, minY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	for _, p := range points {
		if finite(p.X) && p.X < minX {
			minX = p.X
		}
		if finite(p.Y) && p.Y < minY {
			minY = p.Y
		}
	}
	if math.IsInf(minX, 1) || math.IsInf(minY, 1) {
		return 0, 0, false
	}
	return minX, minY, true
}

// Shift returns a copy of p moved by (-dx, -dy). Elevation is copied, not shared.
func Shift(p domain.LocalPoint, dx, dy float64) domain.LocalPoint {
	out := domain.LocalPoint{X: p.X - dx, Y: p.Y - dy}
	if p.Z != nil {
		out.Z = domain.Float(*p.Z)
	}
	return out
}

// Normalize shifts every point by the batch minimum so that the smallest x
// and y become zero. The input slice is not modified. Normalize must run
// once over a complete dataset; sub-batches get different offsets.
func Normalize(points []domain.LocalPoint) []domain.LocalPoint {
	out := make([]domain.LocalPoint, len(points))
	minX, minY, ok := NormalizationOffset(points)
	if !ok {
		minX, minY = 0, 0
	}
	for i, p := range points {
		out[i] = Shift(p, minX, minY)
	}
	return out
}
