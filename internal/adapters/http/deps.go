package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/drillmap/internal/adapters/postgres"
	"github.com/samirrijal/drillmap/internal/adapters/valkey"
	"github.com/samirrijal/drillmap/internal/core/ports"
	"github.com/samirrijal/drillmap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Datasets *usecases.DatasetService
	Points   *usecases.PointService
	Decoder  ports.SurveyDecoder
	// Scheduler is nil when Temporal is disabled; reprocessing then runs inline.
	Scheduler ports.ReprocessScheduler
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache

	// MaxUploadBytes caps multipart uploads; 0 disables the check.
	MaxUploadBytes int64
	// SpecPath locates the OpenAPI document served under /docs.
	SpecPath string
}
