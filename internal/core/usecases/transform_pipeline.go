package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/geodesy"
	"github.com/samirrijal/drillmap/internal/pkg/metrics"
	"github.com/samirrijal/drillmap/internal/pkg/telemetry"
)

// defaultHoleName is used for rows without a hole name.
const defaultHoleName = "N/A"

// PipelineOptions controls optional pipeline stages.
type PipelineOptions struct {
	Geographic bool // project every point to WGS 84
	Normalize  bool // fill Display fields shifted to a zero minimum
	Workers    int  // per-record fan-out; <= 0 means GOMAXPROCS
}

// TransformPipeline turns canonical survey rows into transformed records,
// extent statistics and an exclusion count.
type TransformPipeline struct {
	params    domain.TransformParameters
	opts      PipelineOptions
	helmert   *geodesy.Helmert
	projector *geodesy.TransverseMercator
	logger    *slog.Logger
}

// NewTransformPipeline validates params before any record is processed.
func NewTransformPipeline(params domain.TransformParameters, opts PipelineOptions) (*TransformPipeline, error) {
	helmert, err := geodesy.NewHelmert(params.Helmert)
	if err != nil {
		return nil, err
	}
	projector, err := geodesy.NewTransverseMercator(params.Projection)
	if err != nil {
		return nil, err
	}
	switch params.ProjectFrom {
	case domain.ProjectFromLocal, domain.ProjectFromRaw:
	case "":
		params.ProjectFrom = domain.ProjectFromLocal
	default:
		return nil, fmt.Errorf("%w: unknown projection source %q", domain.ErrInvalidConfig, params.ProjectFrom)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	return &TransformPipeline{
		params:    params,
		opts:      opts,
		helmert:   helmert,
		projector: projector,
		logger:    slog.Default(),
	}, nil
}

// WithLogger returns a copy of the pipeline logging to l.
func (p *TransformPipeline) WithLogger(l *slog.Logger) *TransformPipeline {
	cp := *p
	cp.logger = l
	return &cp
}

// Params returns the validated parameters.
func (p *TransformPipeline) Params() domain.TransformParameters {
	return p.params
}

// Options returns the pipeline options.
func (p *TransformPipeline) Options() PipelineOptions {
	return p.opts
}

// rowOutcome is the per-row result written by workers at the row's index.
type rowOutcome struct {
	record    *domain.TransformedRecord
	exclusion *domain.Exclusion
	geoFailed int
}

// Run transforms rows. Per-row work is spread over the configured workers
// and reassembled in input order; normalization and statistics run once all
// rows are done. Cancelling ctx aborts the run with ctx.Err().
func (p *TransformPipeline) Run(ctx context.Context, rows []domain.SurveyRow) (*domain.TransformResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPipelineRun)
	defer span.End()
	span.SetAttributes(
		attribute.Int(telemetry.AttrRows, len(rows)),
		attribute.Int(telemetry.AttrWorkers, p.opts.Workers),
	)

	start := time.Now()
	outcomes := make([]rowOutcome, len(rows))

	workers := p.opts.Workers
	if workers > len(rows) {
		workers = len(rows)
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = p.transformRow(idx, rows[idx])
			}
		}()
	}

send:
	for i := range rows {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return nil, err
	}

	result := &domain.TransformResult{Records: make([]domain.TransformedRecord, 0, len(rows))}
	geoFailed := 0
	for _, o := range outcomes {
		geoFailed += o.geoFailed
		if o.exclusion != nil {
			result.Exclusions = append(result.Exclusions, *o.exclusion)
			continue
		}
		result.Records = append(result.Records, *o.record)
	}
	result.ExcludedCount = len(result.Exclusions)

	p.finish(result)

	if result.ExcludedCount > 0 {
		p.logger.InfoContext(ctx, "pipeline: rows excluded", "count", result.ExcludedCount, "rows", len(rows))
	}
	if geoFailed > 0 {
		p.logger.WarnContext(ctx, "pipeline: points without geographic position", "count", geoFailed)
		metrics.ProjectionFailures.Add(float64(geoFailed))
	}

	metrics.PipelineRows.WithLabelValues("transformed").Add(float64(len(result.Records)))
	metrics.PipelineRows.WithLabelValues("excluded").Add(float64(result.ExcludedCount))
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int(telemetry.AttrRecords, len(result.Records)),
		attribute.Int(telemetry.AttrExcluded, result.ExcludedCount),
	)

	return result, nil
}

// finish runs the whole-batch stages: normalization, extent and geo bounds.
func (p *TransformPipeline) finish(result *domain.TransformResult) {
	if len(result.Records) == 0 {
		return
	}

	local := make([]domain.LocalPoint, 0, 2*len(result.Records))
	var geo []domain.GeoPoint
	for _, r := range result.Records {
		local = append(local, r.StartLocal)
		if r.EndLocal != nil {
			local = append(local, *r.EndLocal)
		}
		if r.StartGeo != nil {
			geo = append(geo, *r.StartGeo)
		}
		if r.EndGeo != nil {
			geo = append(geo, *r.EndGeo)
		}
	}

	statsInput := local
	if p.opts.Normalize {
		minX, minY, ok := geodesy.NormalizationOffset(local)
		if !ok {
			minX, minY = 0, 0
		}
		statsInput = make([]domain.LocalPoint, 0, len(local))
		for i := range result.Records {
			r := &result.Records[i]
			start := geodesy.Shift(r.StartLocal, minX, minY)
			r.StartDisplay = &start
			statsInput = append(statsInput, start)
			if r.EndLocal != nil {
				end := geodesy.Shift(*r.EndLocal, minX, minY)
				r.EndDisplay = &end
				statsInput = append(statsInput, end)
			}
		}
	}

	result.Stats = geodesy.ComputeExtent(statsInput)
	result.GeoBounds = domain.BoundsOf(geo)
}

// transformRow parses and transforms a single row. It never fails; rows
// without a usable start point come back as exclusions.
func (p *TransformPipeline) transformRow(idx int, row domain.SurveyRow) rowOutcome {
	rec, excl := parseRow(idx, row)
	if excl != nil {
		return rowOutcome{exclusion: excl}
	}

	out := domain.TransformedRecord{
		ID:         rec.ID,
		Name:       rec.Name,
		Line:       rec.Line,
		StartRaw:   rec.Start,
		EndRaw:     rec.End,
		StartLocal: p.helmert.ForwardPoint(rec.Start),
	}
	if rec.End != nil {
		end := p.helmert.ForwardPoint(*rec.End)
		out.EndLocal = &end
		length := traceLength(out.StartLocal, end)
		out.TraceLength = &length
	}

	var failed int
	if p.opts.Geographic {
		if g, ok := p.project(rec.Start, out.StartLocal); ok {
			out.StartGeo = &g
		} else {
			failed++
		}
		if rec.End != nil {
			if g, ok := p.project(*rec.End, *out.EndLocal); ok {
				out.EndGeo = &g
			} else {
				failed++
			}
		}
	}

	return rowOutcome{record: &out, geoFailed: failed}
}

// project feeds the configured frame to the projector. Local and raw X are
// eastings, Y are northings.
func (p *TransformPipeline) project(raw domain.RawPoint, local domain.LocalPoint) (domain.GeoPoint, bool) {
	pt := domain.ProjectedPoint{Easting: local.X, Northing: local.Y}
	if p.params.ProjectFrom == domain.ProjectFromRaw {
		pt = domain.ProjectedPoint{Easting: raw.X, Northing: raw.Y}
	}
	return p.projector.ToGeographic(pt)
}

// parseRow converts a canonical row into a BoreholeRecord. An end point is
// kept only when both its X and Y parse.
func parseRow(idx int, row domain.SurveyRow) (domain.BoreholeRecord, *domain.Exclusion) {
	line := row.Line
	if line <= 0 {
		line = idx + 1
	}
	name := strings.TrimSpace(row.HoleName)
	if name == "" {
		name = defaultHoleName
	}

	x, okX := geodesy.ParseOptional(row.RawStartPointX)
	y, okY := geodesy.ParseOptional(row.RawStartPointY)
	if !okX || !okY {
		var missing []string
		if !okX {
			missing = append(missing, domain.FieldRawStartPointX)
		}
		if !okY {
			missing = append(missing, domain.FieldRawStartPointY)
		}
		return domain.BoreholeRecord{}, &domain.Exclusion{
			Line:     line,
			HoleName: name,
			Reason:   "missing or unparsable " + strings.Join(missing, ", "),
		}
	}

	rec := domain.BoreholeRecord{
		ID:    strconv.Itoa(line),
		Name:  name,
		Line:  line,
		Start: domain.RawPoint{X: x, Y: y, Z: optional(row.RawStartPointZ)},
	}

	ex, okEX := geodesy.ParseOptional(row.RawEndPointX)
	ey, okEY := geodesy.ParseOptional(row.RawEndPointY)
	if okEX && okEY {
		rec.End = &domain.RawPoint{X: ex, Y: ey, Z: optional(row.RawEndPointZ)}
	}
	return rec, nil
}

func optional(v any) *float64 {
	if f, ok := geodesy.ParseOptional(v); ok {
		return &f
	}
	return nil
}

// traceLength is the collar-to-end distance in the local frame. Elevation
// contributes only when both ends have it.
func traceLength(start, end domain.LocalPoint) float64 {
	dx := end.X - start.X
	dy := end.Y - start.Y
	if start.Z != nil && end.Z != nil {
		dz := *end.Z - *start.Z
		return math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return math.Hypot(dx, dy)
}
