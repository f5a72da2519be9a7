package telemetry

// Span and attribute names used for instrumentation.
const (
	TracerName = "github.com/samirrijal/drillmap"

	// Spans
	SpanPipelineRun      = "pipeline.run"
	SpanDatasetIngest    = "dataset.ingest"
	SpanDatasetReprocess = "dataset.reprocess"
	SpanFileDecode       = "file.decode"

	// Attributes
	AttrRows          = "pipeline.rows"
	AttrRecords       = "pipeline.records"
	AttrExcluded      = "pipeline.excluded"
	AttrWorkers       = "pipeline.workers"
	AttrDatasetID     = "dataset.id"
	AttrFileName      = "file.name"
	AttrFileFormat    = "file.format"
	AttrParamsVersion = "transform.params_fingerprint"
)
