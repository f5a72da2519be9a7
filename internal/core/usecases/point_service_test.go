package usecases_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/usecases"
)

func TestPointService_RoundTrip(t *testing.T) {
	for _, source := range []domain.ProjectionSource{domain.ProjectFromLocal, domain.ProjectFromRaw} {
		t.Run(string(source), func(t *testing.T) {
			p := siteParams()
			p.ProjectFrom = source
			svc := usecases.NewPointService(mustPipeline(t, p, usecases.PipelineOptions{}))

			raw := domain.RawPoint{X: 503120.25, Y: 9120.5}
			fwd, err := svc.FromRaw(raw)
			if err != nil {
				t.Fatalf("FromRaw: %v", err)
			}
			back, err := svc.FromGeographic(fwd.Geo)
			if err != nil {
				t.Fatalf("FromGeographic: %v", err)
			}
			if math.Abs(back.Raw.X-raw.X) > 1e-6 || math.Abs(back.Raw.Y-raw.Y) > 1e-6 {
				t.Errorf("expected raw %+v, got %+v", raw, back.Raw)
			}
			if math.Abs(back.Local.X-fwd.Local.X) > 1e-6 || math.Abs(back.Local.Y-fwd.Local.Y) > 1e-6 {
				t.Errorf("expected local %+v, got %+v", fwd.Local, back.Local)
			}
		})
	}
}

func TestPointService_FromLocal(t *testing.T) {
	svc := usecases.NewPointService(mustPipeline(t, siteParams(), usecases.PipelineOptions{}))

	local := domain.LocalPoint{X: 500000, Y: 7317.3475}
	conv, err := svc.FromLocal(local)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(conv.Geo.Lat-53.41320278) > 1e-9 || math.Abs(conv.Geo.Lon-69) > 1e-9 {
		t.Errorf("expected projection origin, got %+v", conv.Geo)
	}
	if math.Abs(conv.Local.X-local.X) > 1e-6 || math.Abs(conv.Local.Y-local.Y) > 1e-6 {
		t.Errorf("expected local %+v preserved, got %+v", local, conv.Local)
	}
}

func TestPointService_FromGeographic_OutOfZone(t *testing.T) {
	svc := usecases.NewPointService(mustPipeline(t, siteParams(), usecases.PipelineOptions{}))

	_, err := svc.FromGeographic(domain.GeoPoint{Lat: 10, Lon: -120})
	if !errors.Is(err, domain.ErrProjection) {
		t.Errorf("expected ErrProjection, got %v", err)
	}
}

func TestPointService_VerifyReferencePoints(t *testing.T) {
	svc := usecases.NewPointService(mustPipeline(t, siteParams(), usecases.PipelineOptions{}))

	raw := domain.RawPoint{X: 501000, Y: 8000}
	conv, err := svc.FromRaw(raw)
	if err != nil {
		t.Fatalf("FromRaw: %v", err)
	}

	good := domain.ReferencePoint{Name: "BM-1", Raw: raw, Geo: conv.Geo, ToleranceM: 0.01}
	if err := svc.VerifyReferencePoints([]domain.ReferencePoint{good}); err != nil {
		t.Errorf("expected reference to pass, got %v", err)
	}

	bad := good
	bad.Name = "BM-2"
	bad.Geo.Lat += 0.001
	err = svc.VerifyReferencePoints([]domain.ReferencePoint{good, bad})
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if !strings.Contains(err.Error(), "BM-2") || strings.Contains(err.Error(), "BM-1") {
		t.Errorf("expected only BM-2 reported, got %v", err)
	}
}
