package ports

import (
	"context"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

// DatasetRepository persists datasets together with the survey rows they
// were built from and their transformed records.
type DatasetRepository interface {
	// Create stores a new dataset, its source rows and its records atomically.
	Create(ctx context.Context, ds *domain.Dataset, rows []domain.SurveyRow, records []domain.TransformedRecord) error
	// ReplaceRecords swaps all records of an existing dataset and updates its summary.
	ReplaceRecords(ctx context.Context, ds *domain.Dataset, records []domain.TransformedRecord) error
	GetByID(ctx context.Context, id string) (*domain.Dataset, error)
	List(ctx context.Context, offset, limit int) ([]domain.Dataset, int, error)
	Records(ctx context.Context, datasetID string, offset, limit int) ([]domain.TransformedRecord, int, error)
	SurveyRows(ctx context.Context, datasetID string) ([]domain.SurveyRow, error)
	Delete(ctx context.Context, id string) error
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyBorehole, error)
}
