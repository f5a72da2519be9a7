package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/drillmap/internal/adapters/http"
	natsadapter "github.com/samirrijal/drillmap/internal/adapters/nats"
	"github.com/samirrijal/drillmap/internal/adapters/postgres"
	"github.com/samirrijal/drillmap/internal/adapters/tabular"
	"github.com/samirrijal/drillmap/internal/adapters/valkey"
	"github.com/samirrijal/drillmap/internal/core/ports"
	"github.com/samirrijal/drillmap/internal/core/usecases"
	"github.com/samirrijal/drillmap/internal/pkg/config"
	"github.com/samirrijal/drillmap/internal/pkg/logging"
	"github.com/samirrijal/drillmap/internal/pkg/telemetry"
	"github.com/samirrijal/drillmap/internal/workflows"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load("drillmap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Transform pipeline. Bad parameters or a failed reference check stop
	// the process before it serves a single coordinate.
	params, err := cfg.TransformParameters()
	if err != nil {
		log.Fatalf("transform parameters: %v", err)
	}
	pipeline, err := usecases.NewTransformPipeline(params, cfg.PipelineOptions())
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	pipeline = pipeline.WithLogger(logger)

	pointSvc := usecases.NewPointService(pipeline)
	if err := pointSvc.VerifyReferencePoints(cfg.ReferencePoints()); err != nil {
		log.Fatalf("reference points: %v", err)
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	// Cache
	var cache ports.CacheService
	valkeyCache, err := valkey.New(cfg.Valkey.Addr, "drillmap:")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer valkeyCache.Close()
		cache = valkeyCache
	}

	// NATS
	var events ports.EventPublisher
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer publisher.Close()
		events = publisher
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Drain()
	}

	datasetSvc := usecases.NewDatasetService(postgres.NewDatasetRepo(db), pipeline, events, cache)

	deps := &http.Dependencies{
		Datasets:       datasetSvc,
		Points:         pointSvc,
		Decoder:        tabular.NewDecoder(tabular.ParseEncoding(cfg.Ingest.CSVEncoding), maxUploadBytes(cfg)),
		NATS:           natsConn,
		DB:             db,
		Cache:          valkeyCache,
		MaxUploadBytes: maxUploadBytes(cfg),
		SpecPath:       http.DefaultSpecPath,
	}

	// Temporal (optional): without it reprocessing runs inside the request.
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			slog.Warn("temporal unavailable, reprocessing inline", "error", err)
		} else {
			defer tc.Close()
			deps.Scheduler = workflows.NewScheduler(tc, cfg.Temporal.TaskQueue)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		// Multipart framing needs a little room above the file itself.
		BodyLimit: int(maxUploadBytes(cfg)) + 1<<20,
		AppName:   "DrillMap API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "reprocess_async", deps.Scheduler != nil)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Uploads may still be inside the pipeline; give them up to 30s.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func maxUploadBytes(cfg *config.Config) int64 {
	return int64(cfg.Ingest.MaxUploadMB) << 20
}
