package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	natsadapter "github.com/samirrijal/drillmap/internal/adapters/nats"
	"github.com/samirrijal/drillmap/internal/adapters/postgres"
	"github.com/samirrijal/drillmap/internal/adapters/tabular"
	"github.com/samirrijal/drillmap/internal/core/ports"
	"github.com/samirrijal/drillmap/internal/core/usecases"
	"github.com/samirrijal/drillmap/internal/pkg/config"
	"github.com/samirrijal/drillmap/internal/pkg/logging"
)

// surveyExts are the file types picked up when a directory is given.
var surveyExts = map[string]bool{".csv": true, ".txt": true, ".xlsx": true}

func main() {
	concurrency := flag.Int("concurrency", 4, "files ingested at the same time")
	publish := flag.Bool("publish", true, "publish dataset.processed events to NATS")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: ingestor [flags] <file|dir>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("drillmap-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	files, err := collectFiles(flag.Args())
	if err != nil {
		log.Fatalf("inputs: %v", err)
	}
	if len(files) == 0 {
		log.Fatal("no survey files found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params, err := cfg.TransformParameters()
	if err != nil {
		log.Fatalf("transform parameters: %v", err)
	}
	pipeline, err := usecases.NewTransformPipeline(params, cfg.PipelineOptions())
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	pipeline = pipeline.WithLogger(logger)

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var events ports.EventPublisher
	if *publish {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, events not published", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	datasets := usecases.NewDatasetService(postgres.NewDatasetRepo(db), pipeline, events, nil)
	decoder := tabular.NewDecoder(tabular.ParseEncoding(cfg.Ingest.CSVEncoding), int64(cfg.Ingest.MaxUploadMB)<<20)

	slog.Info("ingestion starting", "files", len(files), "concurrency", *concurrency)
	start := time.Now()

	var ok, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)
	for _, path := range files {
		path := path
		g.Go(func() error {
			// One bad file must not stop the others; only cancellation does.
			if err := ingestFile(gctx, datasets, decoder, path); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				slog.Error("ingest failed", "file", path, "error", err)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("ingestion interrupted", "error", err)
	}

	slog.Info("ingestion complete",
		"ingested", ok.Load(),
		"failed", failed.Load(),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

func ingestFile(ctx context.Context, datasets *usecases.DatasetService, decoder ports.SurveyDecoder, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := filepath.Base(path)
	rows, format, err := decoder.Decode(f, name)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	ds, result, err := datasets.Ingest(ctx, name, format, rows)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	slog.Info("dataset stored",
		"file", name,
		"dataset_id", ds.ID,
		"records", ds.RecordCount,
		"excluded", ds.ExcludedCount,
	)
	for _, ex := range result.Exclusions {
		slog.Debug("row excluded", "file", name, "line", ex.Line, "hole", ex.HoleName, "reason", ex.Reason)
	}
	return nil
}

// collectFiles expands directories (one level) into survey files.
func collectFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !surveyExts[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			out = append(out, filepath.Join(arg, e.Name()))
		}
	}
	return out, nil
}
