package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	handler "github.com/samirrijal/drillmap/internal/adapters/http"
	"github.com/samirrijal/drillmap/internal/adapters/tabular"
	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/usecases"
	"github.com/samirrijal/drillmap/internal/pkg/config"
	"github.com/samirrijal/drillmap/internal/pkg/logging"
)

// convert transforms one survey file offline: no database, no events.
//
//	convert [-format json|geojson] [-o out.json] [-normalize] survey.csv
func main() {
	format := flag.String("format", "json", "output format: json or geojson")
	out := flag.String("o", "-", "output file, - for stdout")
	normalize := flag.Bool("normalize", false, "add display coordinates shifted to the batch minimum")
	indent := flag.Bool("indent", true, "indent JSON output")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: convert [flags] <survey.csv|survey.xlsx>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *format != "json" && *format != "geojson" {
		log.Fatalf("unknown format %q", *format)
	}

	cfg, err := config.Load("drillmap-convert")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// Logs go to stderr so stdout stays clean for the result.
	logger := logging.New(os.Stderr, cfg.Telemetry.ServiceName, cfg.Log.Level, "text")
	slog.SetDefault(logger)

	params, err := cfg.TransformParameters()
	if err != nil {
		log.Fatalf("transform parameters: %v", err)
	}
	opts := cfg.PipelineOptions()
	opts.Normalize = opts.Normalize || *normalize
	if *format == "geojson" {
		opts.Geographic = true
	}
	pipeline, err := usecases.NewTransformPipeline(params, opts)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	pipeline = pipeline.WithLogger(logger)
	if err := usecases.NewPointService(pipeline).VerifyReferencePoints(cfg.ReferencePoints()); err != nil {
		log.Fatalf("reference points: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := flag.Arg(0)
	result, err := convertFile(ctx, pipeline, tabular.NewDecoder(tabular.ParseEncoding(cfg.Ingest.CSVEncoding), 0), path)
	if err != nil {
		log.Fatalf("%s: %v", path, err)
	}
	slog.Info("converted", "file", filepath.Base(path), "records", len(result.Records), "excluded", result.ExcludedCount)

	var payload any = result
	if *format == "geojson" {
		payload = handler.NewFeatureCollection(result.Records)
	}

	w := io.Writer(os.Stdout)
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("create output: %v", err)
		}
		defer f.Close()
		w = f
	}
	if err := writeJSON(w, payload, *indent); err != nil {
		log.Fatalf("write output: %v", err)
	}
}

func convertFile(ctx context.Context, pipeline *usecases.TransformPipeline, decoder *tabular.Decoder, path string) (*domain.TransformResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, _, err := decoder.Decode(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return pipeline.Run(ctx, rows)
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
