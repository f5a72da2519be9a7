package ports

import (
	"context"
	"io"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishDatasetEvent(ctx context.Context, event *domain.DatasetEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeDatasetEvents(ctx context.Context, handler func(ctx context.Context, event *domain.DatasetEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// SurveyDecoder turns an uploaded survey file into canonical rows. The
// returned format names the detected file type ("csv", "xlsx").
type SurveyDecoder interface {
	Decode(r io.Reader, fileName string) (rows []domain.SurveyRow, format string, err error)
}

// ReprocessScheduler runs dataset reprocessing outside the request path.
type ReprocessScheduler interface {
	ScheduleReprocess(ctx context.Context, datasetID string) (runID string, err error)
}
