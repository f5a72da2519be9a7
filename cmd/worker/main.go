package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/drillmap/internal/adapters/nats"
	"github.com/samirrijal/drillmap/internal/adapters/postgres"
	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/ports"
	"github.com/samirrijal/drillmap/internal/core/usecases"
	"github.com/samirrijal/drillmap/internal/pkg/config"
	"github.com/samirrijal/drillmap/internal/pkg/logging"
	"github.com/samirrijal/drillmap/internal/pkg/telemetry"
	"github.com/samirrijal/drillmap/internal/workflows"
)

// durableName keeps the stale-check consumer position across restarts.
const durableName = "drillmap-worker"

func main() {
	cfg, err := config.Load("drillmap-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// The worker's parameters are the ones datasets get rebuilt with.
	params, err := cfg.TransformParameters()
	if err != nil {
		log.Fatalf("transform parameters: %v", err)
	}
	pipeline, err := usecases.NewTransformPipeline(params, cfg.PipelineOptions())
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	pipeline = pipeline.WithLogger(logger)
	if err := usecases.NewPointService(pipeline).VerifyReferencePoints(cfg.ReferencePoints()); err != nil {
		log.Fatalf("reference points: %v", err)
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	var events ports.EventPublisher
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, reprocessed events not published", "error", err)
	} else {
		defer publisher.Close()
		events = publisher
	}

	datasets := usecases.NewDatasetService(postgres.NewDatasetRepo(db), pipeline, events, nil)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ReprocessWorkflow)
	w.RegisterActivity(&workflows.ReprocessActivities{Datasets: datasets})

	// Datasets ingested elsewhere with older parameters are rebuilt here.
	scheduler := workflows.NewScheduler(c, cfg.Temporal.TaskQueue)
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, durableName)
	if err != nil {
		slog.Warn("nats subscriber unavailable, stale check disabled", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribeDatasetEvents(ctx, func(ctx context.Context, ev *domain.DatasetEvent) error {
			if ev.Type != domain.EventDatasetProcessed {
				return nil
			}
			runID, err := scheduler.ScheduleIfStale(ctx, ev.DatasetID)
			if err != nil {
				return err
			}
			slog.Debug("stale check scheduled", "dataset_id", ev.DatasetID, "run_id", runID)
			return nil
		})
		if err != nil {
			log.Fatalf("subscribe dataset events: %v", err)
		}
	}

	slog.Info("reprocess worker started", "task_queue", cfg.Temporal.TaskQueue, "fingerprint", params.Fingerprint())
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
