package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/ports"
	"github.com/samirrijal/drillmap/internal/pkg/metrics"
	"github.com/samirrijal/drillmap/internal/pkg/telemetry"
)

// Cache TTLs in seconds.
const (
	datasetCacheTTL = 600
	recordsCacheTTL = 300
)

// DatasetService ingests survey files and serves the stored results.
type DatasetService struct {
	datasets ports.DatasetRepository
	pipeline *TransformPipeline
	events   ports.EventPublisher
	cache    ports.CacheService
}

// NewDatasetService creates a new DatasetService. events and cache may be nil.
func NewDatasetService(datasets ports.DatasetRepository, pipeline *TransformPipeline, events ports.EventPublisher, cache ports.CacheService) *DatasetService {
	return &DatasetService{datasets: datasets, pipeline: pipeline, events: events, cache: cache}
}

// Ingest transforms rows and stores them as a new dataset. A file without a
// single usable row is still stored, with zero records and nil stats.
func (s *DatasetService) Ingest(ctx context.Context, fileName, format string, rows []domain.SurveyRow) (*domain.Dataset, *domain.TransformResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanDatasetIngest)
	defer span.End()

	result, err := s.pipeline.Run(ctx, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("transform: %w", err)
	}

	now := time.Now().UTC()
	ds := &domain.Dataset{
		ID:                uuid.NewString(),
		FileName:          fileName,
		SourceFormat:      format,
		RecordCount:       len(result.Records),
		ExcludedCount:     result.ExcludedCount,
		Stats:             result.Stats,
		GeoBounds:         result.GeoBounds,
		ParamsFingerprint: s.pipeline.Params().Fingerprint(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	span.SetAttributes(
		attribute.String(telemetry.AttrDatasetID, ds.ID),
		attribute.String(telemetry.AttrFileName, fileName),
		attribute.String(telemetry.AttrFileFormat, format),
	)

	if err := s.datasets.Create(ctx, ds, rows, result.Records); err != nil {
		return nil, nil, fmt.Errorf("store dataset: %w", err)
	}

	metrics.DatasetsIngested.WithLabelValues(format).Inc()
	slog.InfoContext(ctx, "dataset ingested",
		"dataset_id", ds.ID, "file", fileName, "records", ds.RecordCount, "excluded", ds.ExcludedCount)

	s.publish(ctx, domain.EventDatasetProcessed, ds)
	return ds, result, nil
}

// Transform runs the pipeline without storing anything.
func (s *DatasetService) Transform(ctx context.Context, rows []domain.SurveyRow) (*domain.TransformResult, error) {
	return s.pipeline.Run(ctx, rows)
}

// Get returns a dataset summary.
func (s *DatasetService) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	cacheKey := "datasets:id:" + id
	var ds domain.Dataset
	if s.cacheGet(ctx, "dataset", cacheKey, &ds) {
		return &ds, nil
	}

	found, err := s.datasets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKey, found, datasetCacheTTL)
	return found, nil
}

// List returns a page of datasets, newest first, and the total count.
func (s *DatasetService) List(ctx context.Context, offset, limit int) ([]domain.Dataset, int, error) {
	offset, limit = clampPage(offset, limit, 100, 500)
	return s.datasets.List(ctx, offset, limit)
}

type recordsPage struct {
	Records []domain.TransformedRecord `json:"records"`
	Total   int                        `json:"total"`
}

// Records returns a page of a dataset's records in input order.
func (s *DatasetService) Records(ctx context.Context, id string, offset, limit int) ([]domain.TransformedRecord, int, error) {
	offset, limit = clampPage(offset, limit, 100, 1000)

	ds, err := s.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	// Keyed by UpdatedAt so a reprocessed dataset never serves old pages.
	cacheKey := fmt.Sprintf("datasets:records:%s:%d:%d:%d", id, ds.UpdatedAt.UnixNano(), offset, limit)
	var page recordsPage
	if s.cacheGet(ctx, "records", cacheKey, &page) {
		return page.Records, page.Total, nil
	}

	records, total, err := s.datasets.Records(ctx, id, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	s.cacheSet(ctx, cacheKey, recordsPage{Records: records, Total: total}, recordsCacheTTL)
	return records, total, nil
}

// AllRecords returns every record of a dataset in input order.
func (s *DatasetService) AllRecords(ctx context.Context, id string) ([]domain.TransformedRecord, error) {
	const pageSize = 1000
	var all []domain.TransformedRecord
	for offset := 0; ; offset += pageSize {
		page, total, err := s.Records(ctx, id, offset, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || offset+len(page) >= total {
			return all, nil
		}
	}
}

// Stats returns the extent statistics of a dataset; nil when it has no records.
func (s *DatasetService) Stats(ctx context.Context, id string) (*domain.ExtentStats, error) {
	ds, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ds.Stats, nil
}

// Delete removes a dataset and everything stored with it.
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	ds, err := s.datasets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.datasets.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.publish(ctx, domain.EventDatasetDeleted, ds)
	return nil
}

// Reprocess rebuilds a dataset from its stored survey rows with the current
// parameters. All previous records are replaced.
func (s *DatasetService) Reprocess(ctx context.Context, id string) (*domain.Dataset, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanDatasetReprocess)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrDatasetID, id))

	ds, err := s.datasets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.datasets.SurveyRows(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load survey rows: %w", err)
	}

	result, err := s.pipeline.Run(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	ds.RecordCount = len(result.Records)
	ds.ExcludedCount = result.ExcludedCount
	ds.Stats = result.Stats
	ds.GeoBounds = result.GeoBounds
	ds.ParamsFingerprint = s.pipeline.Params().Fingerprint()
	ds.UpdatedAt = time.Now().UTC()

	if err := s.datasets.ReplaceRecords(ctx, ds, result.Records); err != nil {
		return nil, fmt.Errorf("replace records: %w", err)
	}
	s.invalidate(ctx, id)

	metrics.DatasetsReprocessed.Inc()
	slog.InfoContext(ctx, "dataset reprocessed", "dataset_id", id, "records", ds.RecordCount, "excluded", ds.ExcludedCount)

	s.publish(ctx, domain.EventDatasetReprocessed, ds)
	return ds, nil
}

// FindNearby returns stored boreholes whose collar lies within radiusMeters.
func (s *DatasetService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyBorehole, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.datasets.FindNearby(ctx, lat, lon, radiusMeters, limit)
}

// IsStale reports whether a dataset was built with different parameters.
func (s *DatasetService) IsStale(ds *domain.Dataset) bool {
	return ds.ParamsFingerprint != s.pipeline.Params().Fingerprint()
}

func (s *DatasetService) publish(ctx context.Context, eventType string, ds *domain.Dataset) {
	if s.events == nil {
		return
	}
	event := &domain.DatasetEvent{
		Type:          eventType,
		DatasetID:     ds.ID,
		FileName:      ds.FileName,
		RecordCount:   ds.RecordCount,
		ExcludedCount: ds.ExcludedCount,
		Time:          time.Now().UTC(),
	}
	if err := s.events.PublishDatasetEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish dataset event failed", "dataset_id", ds.ID, "type", eventType, "error", err)
	}
}

func (s *DatasetService) cacheGet(ctx context.Context, op, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err == nil && json.Unmarshal(data, dst) == nil {
		metrics.CacheHits.WithLabelValues(op).Inc()
		return true
	}
	metrics.CacheMisses.WithLabelValues(op).Inc()
	return false
}

func (s *DatasetService) cacheSet(ctx context.Context, key string, v any, ttl int) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, ttl)
	}
}

// invalidate drops the cached summary. Record page keys carry the dataset version.
func (s *DatasetService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, "datasets:id:"+id)
}

func clampPage(offset, limit, def, max int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > max {
		limit = def
	}
	return offset, limit
}
