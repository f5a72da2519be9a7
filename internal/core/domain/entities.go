package domain

import (
	"time"
)

// Canonical input field names.
const (
	FieldHoleName       = "HoleName"
	FieldRawStartPointX = "RawStartPointX"
	FieldRawStartPointY = "RawStartPointY"
	FieldRawStartPointZ = "RawStartPointZ"
	FieldRawEndPointX   = "RawEndPointX"
	FieldRawEndPointY   = "RawEndPointY"
	FieldRawEndPointZ   = "RawEndPointZ"
)

// RequiredFields must be present in every input file.
var RequiredFields = []string{FieldHoleName, FieldRawStartPointX, FieldRawStartPointY}

// SurveyRow is one input row after column mapping. Coordinate fields hold
// whatever the source produced: a string, a number, or nil.
type SurveyRow struct {
	Line           int    `json:"line"`
	HoleName       string `json:"HoleName"`
	RawStartPointX any    `json:"RawStartPointX"`
	RawStartPointY any    `json:"RawStartPointY"`
	RawStartPointZ any    `json:"RawStartPointZ,omitempty"`
	RawEndPointX   any    `json:"RawEndPointX,omitempty"`
	RawEndPointY   any    `json:"RawEndPointY,omitempty"`
	RawEndPointZ   any    `json:"RawEndPointZ,omitempty"`
}

// BoreholeRecord is a parsed survey row. End is nil for a vertical collar
// with no recorded end point.
type BoreholeRecord struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Line  int       `json:"line"`
	Start RawPoint  `json:"start"`
	End   *RawPoint `json:"end,omitempty"`
}

// TransformedRecord is a borehole after transformation. StartLocal and
// EndLocal are the direct Helmert output; the Display fields carry the
// normalized copies when normalization was requested.
type TransformedRecord struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Line         int         `json:"line"`
	StartRaw     RawPoint    `json:"start_raw"`
	EndRaw       *RawPoint   `json:"end_raw,omitempty"`
	StartLocal   LocalPoint  `json:"start_local"`
	EndLocal     *LocalPoint `json:"end_local,omitempty"`
	StartDisplay *LocalPoint `json:"start_display,omitempty"`
	EndDisplay   *LocalPoint `json:"end_display,omitempty"`
	StartGeo     *GeoPoint   `json:"start_geo"`
	EndGeo       *GeoPoint   `json:"end_geo,omitempty"`
	TraceLength  *float64    `json:"trace_length,omitempty"` // meters, local frame
}

// AxisExtent summarizes one axis of a point batch.
type AxisExtent struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Span   float64 `json:"span"`
	Center float64 `json:"center"` // (Min+Max)/2
}

// ExtentStats summarizes a point batch. An axis is nil when no point
// carried a value for it.
type ExtentStats struct {
	X *AxisExtent `json:"x,omitempty"`
	Y *AxisExtent `json:"y,omitempty"`
	Z *AxisExtent `json:"z,omitempty"`
}

// Exclusion records why an input row did not produce a record.
type Exclusion struct {
	Line     int    `json:"line"`
	HoleName string `json:"hole_name"`
	Reason   string `json:"reason"`
}

// TransformResult is the output of one pipeline run. An empty Records slice
// with nil Stats means no row had usable start coordinates.
type TransformResult struct {
	Records       []TransformedRecord `json:"records"`
	Stats         *ExtentStats        `json:"stats"`
	ExcludedCount int                 `json:"excluded_count"`
	Exclusions    []Exclusion         `json:"exclusions,omitempty"`
	GeoBounds     *Bounds             `json:"geo_bounds,omitempty"`
}

// Dataset is a stored, transformed survey file.
type Dataset struct {
	ID                string       `json:"id"`
	FileName          string       `json:"file_name"`
	SourceFormat      string       `json:"source_format"`
	RecordCount       int          `json:"record_count"`
	ExcludedCount     int          `json:"excluded_count"`
	Stats             *ExtentStats `json:"stats"`
	GeoBounds         *Bounds      `json:"geo_bounds,omitempty"`
	ParamsFingerprint string       `json:"params_fingerprint"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// NearbyBorehole is a stored record found by a proximity search.
type NearbyBorehole struct {
	DatasetID string            `json:"dataset_id"`
	Record    TransformedRecord `json:"record"`
	Distance  float64           `json:"distance"` // meters
}

// Dataset event types.
const (
	EventDatasetProcessed   = "processed"
	EventDatasetReprocessed = "reprocessed"
	EventDatasetDeleted     = "deleted"
)

// DatasetEvent announces a change to a stored dataset.
type DatasetEvent struct {
	Type          string    `json:"type"`
	DatasetID     string    `json:"dataset_id"`
	FileName      string    `json:"file_name,omitempty"`
	RecordCount   int       `json:"record_count"`
	ExcludedCount int       `json:"excluded_count"`
	Time          time.Time `json:"time"`
}
