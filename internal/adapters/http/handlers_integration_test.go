//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	handler "github.com/samirrijal/drillmap/internal/adapters/http"
	"github.com/samirrijal/drillmap/internal/adapters/postgres"
	"github.com/samirrijal/drillmap/internal/adapters/tabular"
	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/usecases"
	"github.com/samirrijal/drillmap/internal/pkg/config"
)

// setupTestDB connects to the database named by DRILLMAP_DATABASE_* with
// migrations already applied (cmd/migrate up).
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("drillmap-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

// setupTestDeps wires real repositories with no cache or events.
func setupTestDeps(t *testing.T, db *postgres.DB) *handler.Dependencies {
	t.Helper()
	pipeline, err := usecases.NewTransformPipeline(testParams(), usecases.PipelineOptions{Geographic: true, Normalize: true})
	if err != nil {
		t.Fatalf("NewTransformPipeline: %v", err)
	}
	return &handler.Dependencies{
		Datasets: usecases.NewDatasetService(postgres.NewDatasetRepo(db), pipeline, nil, nil),
		Points:   usecases.NewPointService(pipeline),
		Decoder:  tabular.NewDecoder(tabular.EncodingAuto, 0),
		DB:       db,
	}
}

func TestDatasetLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	app := setupApp(setupTestDeps(t, db))

	name := fmt.Sprintf("integ-%d.csv", time.Now().UnixNano())
	body, ctype := multipartUpload(t, name,
		"HoleName,RawStartPointX,RawStartPointY,RawEndPointX,RawEndPointY\n"+
			"BH-1,500000,7317.3475,500003,7321.3475\n"+
			"BH-2,,7320,,\n"+
			"BH-3,500020,7327.3475,,\n")
	req := httptest.NewRequest("POST", "/v1/datasets", body)
	req.Header.Set("Content-Type", ctype)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var up handler.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	id := up.Dataset.ID

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/datasets/"+id+"/records", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 for records, got %d", resp.StatusCode)
	}
	var page struct {
		Data       []domain.TransformedRecord `json:"data"`
		Pagination handler.Pagination         `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if page.Pagination.Total != 2 || len(page.Data) != 2 {
		t.Fatalf("expected 2 records, got %d of %d", len(page.Data), page.Pagination.Total)
	}
	if page.Data[0].Name != "BH-1" || page.Data[1].Name != "BH-3" {
		t.Errorf("expected input order BH-1, BH-3, got %s, %s", page.Data[0].Name, page.Data[1].Name)
	}
	if page.Data[0].StartDisplay == nil || page.Data[0].StartDisplay.X != 0 {
		t.Errorf("expected normalized display start, got %+v", page.Data[0].StartDisplay)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/boreholes/nearby?lat=53.41320278&lon=69&radius=100", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 for nearby, got %d", resp.StatusCode)
	}
	var nearby []domain.NearbyBorehole
	json.NewDecoder(resp.Body).Decode(&nearby)
	found := false
	for _, n := range nearby {
		if n.DatasetID == id && n.Record.Name == "BH-1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected BH-1 of %s near the projection origin, got %+v", id, nearby)
	}

	resp, _ = app.Test(httptest.NewRequest("POST", "/v1/datasets/"+id+"/reprocess", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 for reprocess, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("DELETE", "/v1/datasets/"+id, nil), -1)
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204 for delete, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/datasets/"+id, nil), -1)
	if resp.StatusCode != 404 {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	app := setupApp(setupTestDeps(t, db))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
