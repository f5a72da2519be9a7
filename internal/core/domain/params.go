package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ProjectionSource selects which frame feeds the Transverse Mercator projection.
type ProjectionSource string

const (
	// ProjectFromLocal projects the Helmert output: local X is easting, local Y is northing.
	ProjectFromLocal ProjectionSource = "local"
	// ProjectFromRaw projects the raw survey coordinates directly.
	ProjectFromRaw ProjectionSource = "raw"
)

// HelmertParams describes a 2D similarity transform from the raw frame to the local frame:
//
//	x' = TX + Scale*((x-OriginX)*cos(R) - (y-OriginY)*sin(R))
//	y' = TY + Scale*((x-OriginX)*sin(R) + (y-OriginY)*cos(R))
//
// R is in radians, counter-clockwise positive. Elevation is never rotated or
// scaled; ZOffset is added to it.
type HelmertParams struct {
	TX              float64 `json:"tx"`
	TY              float64 `json:"ty"`
	RotationRadians float64 `json:"rotation_rad"`
	Scale           float64 `json:"scale"`
	OriginX         float64 `json:"origin_x"`
	OriginY         float64 `json:"origin_y"`
	ZOffset         float64 `json:"z_offset"`
}

// ProjectionParams describes a Transverse Mercator projection on an explicit ellipsoid.
// False easting and northing are applied by the projection only, after the Helmert step.
type ProjectionParams struct {
	OriginLatDeg       float64 `json:"origin_lat_deg"`
	OriginLonDeg       float64 `json:"origin_lon_deg"`
	ScaleFactor        float64 `json:"scale_factor"`
	FalseEasting       float64 `json:"false_easting"`
	FalseNorthing      float64 `json:"false_northing"`
	EllipsoidMajorAxis float64 `json:"ellipsoid_major_axis"`
	EllipsoidMinorAxis float64 `json:"ellipsoid_minor_axis"`
}

// TransformParameters is the complete, validated parameter set for one process.
// It is built once from configuration and passed explicitly to every pipeline.
type TransformParameters struct {
	Helmert     HelmertParams    `json:"helmert"`
	Projection  ProjectionParams `json:"projection"`
	ProjectFrom ProjectionSource `json:"project_from"`
}

// Fingerprint returns a short stable hash of the parameters, stored with
// datasets so stale results can be detected after a parameter change.
func (p TransformParameters) Fingerprint() string {
	data, _ := json.Marshal(p)
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8])
}

// ReferencePoint is an independently surveyed raw coordinate with its known
// WGS 84 position, used to check the configured parameters at startup.
type ReferencePoint struct {
	Name       string   `json:"name"`
	Raw        RawPoint `json:"raw"`
	Geo        GeoPoint `json:"geo"`
	ToleranceM float64  `json:"tolerance_m"`
}
