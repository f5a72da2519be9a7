package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/drillmap/internal/pkg/metrics"
)

// Per-request budgets. Uploads and reprocessing run the full pipeline.
const (
	requestTimeout  = 15 * time.Second
	pipelineTimeout = 2 * time.Minute
)

// legacyPointRoute is the pre-v1 name of POST /v1/points/geographic.
var legacyPointRoute = DeprecatedRoute{
	Path:        "/v1/points/to-wgs84",
	SunsetDate:  time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC),
	Alternative: "/v1/points/geographic",
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware([]DeprecatedRoute{legacyPointRoute}))

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	v1.Post("/datasets", timeout.NewWithContext(UploadDatasetHandler(deps), pipelineTimeout))
	v1.Get("/datasets", timeout.NewWithContext(ListDatasetsHandler(deps), requestTimeout))
	v1.Get("/datasets/:id", timeout.NewWithContext(GetDatasetHandler(deps), requestTimeout))
	v1.Delete("/datasets/:id", timeout.NewWithContext(DeleteDatasetHandler(deps), requestTimeout))
	v1.Get("/datasets/:id/records", timeout.NewWithContext(DatasetRecordsHandler(deps), requestTimeout))
	v1.Get("/datasets/:id/stats", timeout.NewWithContext(DatasetStatsHandler(deps), requestTimeout))
	v1.Get("/datasets/:id/geojson", timeout.NewWithContext(DatasetGeoJSONHandler(deps), pipelineTimeout))
	v1.Post("/datasets/:id/reprocess", timeout.NewWithContext(ReprocessDatasetHandler(deps), pipelineTimeout))

	v1.Get("/boreholes/nearby", timeout.NewWithContext(NearbyBoreholesHandler(deps), requestTimeout))

	v1.Post("/transform", timeout.NewWithContext(TransformHandler(deps), pipelineTimeout))
	v1.Post("/points/geographic", timeout.NewWithContext(GeographicPointHandler(deps), requestTimeout))
	v1.Post("/points/projected", timeout.NewWithContext(ProjectedPointHandler(deps), requestTimeout))
	v1.Post("/points/to-wgs84", timeout.NewWithContext(GeographicPointHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app, deps.SpecPath)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
