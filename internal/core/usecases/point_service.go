package usecases

import (
	"fmt"
	"strings"

	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/pkg/geospatial"
)

// PointConversion holds one point expressed in every frame.
type PointConversion struct {
	Raw       domain.RawPoint       `json:"raw"`
	Local     domain.LocalPoint     `json:"local"`
	Projected domain.ProjectedPoint `json:"projected"`
	Geo       domain.GeoPoint       `json:"geo"`
}

// PointService converts single points using the pipeline's transforms.
type PointService struct {
	pipeline *TransformPipeline
}

// NewPointService creates a new PointService.
func NewPointService(pipeline *TransformPipeline) *PointService {
	return &PointService{pipeline: pipeline}
}

// FromRaw converts a raw survey point to local and geographic coordinates.
func (s *PointService) FromRaw(raw domain.RawPoint) (*PointConversion, error) {
	local := s.pipeline.helmert.ForwardPoint(raw)
	projected := domain.ProjectedPoint{Easting: local.X, Northing: local.Y}
	if s.pipeline.params.ProjectFrom == domain.ProjectFromRaw {
		projected = domain.ProjectedPoint{Easting: raw.X, Northing: raw.Y}
	}

	geo, ok := s.pipeline.projector.ToGeographic(projected)
	if !ok {
		return nil, fmt.Errorf("%w: raw (%g, %g)", domain.ErrProjection, raw.X, raw.Y)
	}
	return &PointConversion{Raw: raw, Local: local, Projected: projected, Geo: geo}, nil
}

// FromLocal converts a local point back to raw and on to geographic coordinates.
func (s *PointService) FromLocal(local domain.LocalPoint) (*PointConversion, error) {
	return s.FromRaw(s.pipeline.helmert.InversePoint(local))
}

// FromGeographic converts a WGS 84 position to grid, local and raw coordinates.
func (s *PointService) FromGeographic(geo domain.GeoPoint) (*PointConversion, error) {
	projected, ok := s.pipeline.projector.ToProjected(geo)
	if !ok {
		return nil, fmt.Errorf("%w: geo (%g, %g)", domain.ErrProjection, geo.Lat, geo.Lon)
	}

	conv := &PointConversion{Projected: projected, Geo: geo}
	if s.pipeline.params.ProjectFrom == domain.ProjectFromRaw {
		conv.Raw = domain.RawPoint{X: projected.Easting, Y: projected.Northing}
		conv.Local = s.pipeline.helmert.ForwardPoint(conv.Raw)
	} else {
		conv.Local = domain.LocalPoint{X: projected.Easting, Y: projected.Northing}
		conv.Raw = s.pipeline.helmert.InversePoint(conv.Local)
	}
	return conv, nil
}

// VerifyReferencePoints converts each reference raw point and fails if any
// lands farther from its known position than its tolerance.
func (s *PointService) VerifyReferencePoints(refs []domain.ReferencePoint) error {
	var errs []string
	for _, ref := range refs {
		conv, err := s.FromRaw(ref.Raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ref.Name, err))
			continue
		}
		dist := geospatial.Haversine(conv.Geo.Lat, conv.Geo.Lon, ref.Geo.Lat, ref.Geo.Lon)
		if dist > ref.ToleranceM {
			errs = append(errs, fmt.Sprintf("%s: converted to (%.8f, %.8f), %.3f m from expected (tolerance %.3f m)",
				ref.Name, conv.Geo.Lat, conv.Geo.Lon, dist, ref.ToleranceM))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: reference check failed:\n  - %s", domain.ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}
