package geodesy_test

import (
	"reflect"
	"testing"

	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/geodesy"
)

func TestComputeExtent(t *testing.T) {
	stats := geodesy.ComputeExtent([]domain.LocalPoint{
		{X: 10, Y: 5}, {X: 20, Y: -5}, {X: 30, Y: 1},
	})
	if stats == nil || stats.X == nil || stats.Y == nil {
		t.Fatalf("expected x and y extents, got %+v", stats)
	}

	want := domain.AxisExtent{Min: 10, Max: 30, Span: 20, Center: 20}
	if *stats.X != want {
		t.Errorf("expected %+v, got %+v", want, *stats.X)
	}
	if stats.Y.Center != 0 || stats.Y.Span != 10 {
		t.Errorf("expected y center 0 and span 10, got %+v", *stats.Y)
	}
	if stats.Z != nil {
		t.Errorf("expected no z extent, got %+v", *stats.Z)
	}
}

func TestComputeExtent_MidpointNotMean(t *testing.T) {
	stats := geodesy.ComputeExtent([]domain.LocalPoint{{X: 0}, {X: 1}, {X: 2}, {X: 100}})
	if stats.X.Center != 50 {
		t.Errorf("expected center 50, got %v", stats.X.Center)
	}
}

func TestComputeExtent_PartialElevation(t *testing.T) {
	stats := geodesy.ComputeExtent([]domain.LocalPoint{
		{X: 1, Y: 1, Z: domain.Float(400)},
		{X: 2, Y: 2},
		{X: 3, Y: 3, Z: domain.Float(380)},
	})
	if stats.Z == nil {
		t.Fatal("expected z extent")
	}
	if stats.Z.Min != 380 || stats.Z.Max != 400 || stats.Z.Center != 390 {
		t.Errorf("unexpected z extent %+v", *stats.Z)
	}
}

func TestComputeExtent_Empty(t *testing.T) {
	if stats := geodesy.ComputeExtent(nil); stats != nil {
		t.Errorf("expected nil, got %+v", stats)
	}
}

func TestNormalize(t *testing.T) {
	in := []domain.LocalPoint{{X: 105, Y: -20}, {X: 100, Y: -10, Z: domain.Float(7)}, {X: 130, Y: -15}}
	out := geodesy.Normalize(in)

	want := []domain.LocalPoint{{X: 5, Y: 0}, {X: 0, Y: 10, Z: domain.Float(7)}, {X: 30, Y: 5}}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("expected %+v, got %+v", want, out)
	}
	if in[0].X != 105 {
		t.Error("input was mutated")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	once := geodesy.Normalize([]domain.LocalPoint{{X: -3.5, Y: 12}, {X: 8, Y: 4.25}, {X: 1, Y: 100}})
	twice := geodesy.Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("expected %+v, got %+v", once, twice)
	}
}

func TestNormalize_Empty(t *testing.T) {
	out := geodesy.Normalize(nil)
	if out == nil || len(out) != 0 {
		t.Errorf("expected empty slice, got %#v", out)
	}
}
