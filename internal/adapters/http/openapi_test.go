package http_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// findOpenAPISpec locates api/openapi.yaml by walking up from the test directory.
func findOpenAPISpec(t *testing.T) string {
	t.Helper()
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	data, err := os.ReadFile(findOpenAPISpec(t))
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI document: %v", err)
	}
	return spec
}

func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)
	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/datasets",
		"/v1/datasets/{id}",
		"/v1/datasets/{id}/records",
		"/v1/datasets/{id}/stats",
		"/v1/datasets/{id}/geojson",
		"/v1/datasets/{id}/reprocess",
		"/v1/boreholes/nearby",
		"/v1/transform",
		"/v1/points/geographic",
		"/v1/points/projected",
		"/v1/points/to-wgs84",
		"/graphql",
	}
	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found", path)
		}
	}

	expectedSchemas := []string{
		"Dataset",
		"SurveyRow",
		"TransformedRecord",
		"TransformResult",
		"ExtentStats",
		"PointConversion",
		"FeatureCollection",
		"APIError",
		"Pagination",
	}
	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}
}

func TestOpenAPISpec_DeprecatedAlias(t *testing.T) {
	spec := loadSpec(t)

	item := spec.Paths.Find("/v1/points/to-wgs84")
	if item == nil || item.Post == nil {
		t.Fatal("expected POST /v1/points/to-wgs84")
	}
	if !item.Post.Deprecated {
		t.Error("expected /v1/points/to-wgs84 to be marked deprecated")
	}
}

func TestOpenAPIInfo(t *testing.T) {
	spec := loadSpec(t)

	if spec.Info.Title != "DrillMap API" {
		t.Errorf("expected title 'DrillMap API', got %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}
}
