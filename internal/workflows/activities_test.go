package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/geodesy"
	"github.com/samirrijal/drillmap/internal/core/usecases"
)

// memRepo is an in-memory ports.DatasetRepository.
type memRepo struct {
	datasets map[string]*domain.Dataset
	rows     map[string][]domain.SurveyRow
	replaced map[string][]domain.TransformedRecord
}

func newMemRepo() *memRepo {
	return &memRepo{
		datasets: map[string]*domain.Dataset{},
		rows:     map[string][]domain.SurveyRow{},
		replaced: map[string][]domain.TransformedRecord{},
	}
}

func (m *memRepo) Create(ctx context.Context, ds *domain.Dataset, rows []domain.SurveyRow, records []domain.TransformedRecord) error {
	cp := *ds
	m.datasets[ds.ID] = &cp
	m.rows[ds.ID] = rows
	return nil
}

func (m *memRepo) ReplaceRecords(ctx context.Context, ds *domain.Dataset, records []domain.TransformedRecord) error {
	cp := *ds
	m.datasets[ds.ID] = &cp
	m.replaced[ds.ID] = records
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	ds, ok := m.datasets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *ds
	return &cp, nil
}

func (m *memRepo) List(ctx context.Context, offset, limit int) ([]domain.Dataset, int, error) {
	return nil, 0, nil
}

func (m *memRepo) Records(ctx context.Context, datasetID string, offset, limit int) ([]domain.TransformedRecord, int, error) {
	return nil, 0, nil
}

func (m *memRepo) SurveyRows(ctx context.Context, datasetID string) ([]domain.SurveyRow, error) {
	return m.rows[datasetID], nil
}

func (m *memRepo) Delete(ctx context.Context, id string) error {
	delete(m.datasets, id)
	return nil
}

func (m *memRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyBorehole, error) {
	return nil, nil
}

func newActivities(t *testing.T, repo *memRepo) *ReprocessActivities {
	t.Helper()
	params := domain.TransformParameters{
		Helmert: domain.HelmertParams{Scale: 1},
		Projection: domain.ProjectionParams{
			OriginLatDeg:       53.41320278,
			OriginLonDeg:       69,
			ScaleFactor:        0.9996,
			FalseEasting:       500000,
			FalseNorthing:      7317.3475,
			EllipsoidMajorAxis: geodesy.WGS84.A,
			EllipsoidMinorAxis: geodesy.WGS84.B,
		},
		ProjectFrom: domain.ProjectFromLocal,
	}
	pipeline, err := usecases.NewTransformPipeline(params, usecases.PipelineOptions{Geographic: true})
	require.NoError(t, err)
	return &ReprocessActivities{Datasets: usecases.NewDatasetService(repo, pipeline, nil, nil)}
}

func TestCheckDataset_Missing(t *testing.T) {
	a := newActivities(t, newMemRepo())

	status, err := a.CheckDataset(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, status.Exists)
}

func TestCheckDataset_Stale(t *testing.T) {
	repo := newMemRepo()
	repo.datasets["ds-1"] = &domain.Dataset{ID: "ds-1", ParamsFingerprint: "old"}
	a := newActivities(t, repo)

	status, err := a.CheckDataset(context.Background(), "ds-1")
	require.NoError(t, err)
	require.True(t, status.Exists)
	require.True(t, status.Stale)
	require.Equal(t, "old", status.Fingerprint)
}

func TestReprocessDataset(t *testing.T) {
	repo := newMemRepo()
	repo.datasets["ds-1"] = &domain.Dataset{ID: "ds-1", ParamsFingerprint: "old", RecordCount: 9}
	repo.rows["ds-1"] = []domain.SurveyRow{
		{Line: 1, HoleName: "BH-1", RawStartPointX: "500000", RawStartPointY: "7317.3475"},
		{Line: 2, HoleName: "BH-2", RawStartPointX: "", RawStartPointY: "7320"},
		{Line: 3, HoleName: "BH-3", RawStartPointX: 500010.0, RawStartPointY: 7327.0},
	}
	a := newActivities(t, repo)

	result, err := a.ReprocessDataset(context.Background(), "ds-1")
	require.NoError(t, err)
	require.Equal(t, "ds-1", result.DatasetID)
	require.Equal(t, 2, result.RecordCount)
	require.Equal(t, 1, result.ExcludedCount)
	require.NotEqual(t, "old", result.Fingerprint)
	require.Len(t, repo.replaced["ds-1"], 2)

	// Rebuilt with the current parameters, the dataset is no longer stale.
	status, err := a.CheckDataset(context.Background(), "ds-1")
	require.NoError(t, err)
	require.False(t, status.Stale)
}

func TestReprocessDataset_MissingIsNonRetryable(t *testing.T) {
	a := newActivities(t, newMemRepo())

	_, err := a.ReprocessDataset(context.Background(), "gone")
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	require.True(t, appErr.NonRetryable())
}
