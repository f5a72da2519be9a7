package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/geodesy"
	"github.com/samirrijal/drillmap/internal/core/usecases"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Transform TransformConfig `mapstructure:"transform"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// TemporalConfig points at the Temporal frontend used for background reprocessing.
type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	Enabled   bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IngestConfig controls survey file decoding.
type IngestConfig struct {
	// CSVEncoding is "auto", "utf-8" or "windows-1251".
	CSVEncoding string `mapstructure:"csv_encoding"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
}

type HelmertConfig struct {
	TX       float64 `mapstructure:"tx"`
	TY       float64 `mapstructure:"ty"`
	Rotation float64 `mapstructure:"rotation"`
	Scale    float64 `mapstructure:"scale"`
	OriginX  float64 `mapstructure:"origin_x"`
	OriginY  float64 `mapstructure:"origin_y"`
	ZOffset  float64 `mapstructure:"z_offset"`
}

type ProjectionConfig struct {
	OriginLat     float64 `mapstructure:"origin_lat"`
	OriginLon     float64 `mapstructure:"origin_lon"`
	ScaleFactor   float64 `mapstructure:"scale_factor"`
	FalseEasting  float64 `mapstructure:"false_easting"`
	FalseNorthing float64 `mapstructure:"false_northing"`
	EllipsoidA    float64 `mapstructure:"ellipsoid_a"`
	EllipsoidB    float64 `mapstructure:"ellipsoid_b"`
	// InverseFlattening, when set, derives the minor axis from EllipsoidA.
	InverseFlattening float64 `mapstructure:"inverse_flattening"`
}

type ReferencePointConfig struct {
	Name       string  `mapstructure:"name"`
	RawX       float64 `mapstructure:"raw_x"`
	RawY       float64 `mapstructure:"raw_y"`
	Lat        float64 `mapstructure:"lat"`
	Lon        float64 `mapstructure:"lon"`
	ToleranceM float64 `mapstructure:"tolerance_m"`
}

// TransformConfig is the user-facing form of domain.TransformParameters.
type TransformConfig struct {
	Helmert HelmertConfig `mapstructure:"helmert"`
	// RotationUnit is "rad", "deg" or "gon".
	RotationUnit string `mapstructure:"rotation_unit"`
	// RotationFromFullCircle means Rotation is a bearing measured from a full
	// circle (e.g. 398.9098 gon) and the full circle is subtracted.
	RotationFromFullCircle bool                   `mapstructure:"rotation_from_full_circle"`
	Projection             ProjectionConfig       `mapstructure:"projection"`
	ProjectFrom            string                 `mapstructure:"project_from"`
	ReferencePoints        []ReferencePointConfig `mapstructure:"reference_points"`
}

type PipelineConfig struct {
	Geographic bool `mapstructure:"geographic"`
	Normalize  bool `mapstructure:"normalize"`
	Workers    int  `mapstructure:"workers"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "drillmap")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "drillmap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "drillmap-reprocess")
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("ingest.csv_encoding", "auto")
	v.SetDefault("ingest.max_upload_mb", 32)

	// Every transform key has a default so AutomaticEnv can override it.
	v.SetDefault("transform.helmert.tx", 0.0)
	v.SetDefault("transform.helmert.ty", 0.0)
	v.SetDefault("transform.helmert.rotation", 0.0)
	v.SetDefault("transform.helmert.scale", 1.0)
	v.SetDefault("transform.helmert.origin_x", 0.0)
	v.SetDefault("transform.helmert.origin_y", 0.0)
	v.SetDefault("transform.helmert.z_offset", 0.0)
	v.SetDefault("transform.rotation_unit", "rad")
	v.SetDefault("transform.rotation_from_full_circle", false)
	v.SetDefault("transform.projection.origin_lat", 0.0)
	v.SetDefault("transform.projection.origin_lon", 0.0)
	v.SetDefault("transform.projection.false_northing", 0.0)
	v.SetDefault("transform.projection.inverse_flattening", 0.0)
	v.SetDefault("transform.projection.scale_factor", 0.9996)
	v.SetDefault("transform.projection.false_easting", 500000.0)
	v.SetDefault("transform.projection.ellipsoid_a", geodesy.WGS84.A)
	v.SetDefault("transform.projection.ellipsoid_b", geodesy.WGS84.B)
	v.SetDefault("transform.project_from", string(domain.ProjectFromLocal))
	v.SetDefault("pipeline.geographic", true)
	v.SetDefault("pipeline.normalize", false)
	v.SetDefault("pipeline.workers", 0)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: DRILLMAP_TRANSFORM_HELMERT_TX → transform.helmert.tx
	v.SetEnvPrefix("DRILLMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Temporal.Enabled && (c.Temporal.HostPort == "" || c.Temporal.TaskQueue == "") {
		errs = append(errs, "temporal.host_port and temporal.task_queue are required when temporal is enabled")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	switch strings.ToLower(c.Ingest.CSVEncoding) {
	case "auto", "utf-8", "utf8", "windows-1251", "cp1251":
	default:
		errs = append(errs, fmt.Sprintf("ingest.csv_encoding must be auto, utf-8 or windows-1251, got %q", c.Ingest.CSVEncoding))
	}
	if c.Ingest.MaxUploadMB <= 0 {
		errs = append(errs, "ingest.max_upload_mb must be positive")
	}
	if c.Pipeline.Workers < 0 {
		errs = append(errs, "pipeline.workers must not be negative")
	}

	if _, err := c.TransformParameters(); err != nil {
		errs = append(errs, err.Error())
	}
	for i, ref := range c.Transform.ReferencePoints {
		if !(domain.GeoPoint{Lat: ref.Lat, Lon: ref.Lon}).Valid() {
			errs = append(errs, fmt.Sprintf("transform.reference_points[%d]: lat/lon out of range", i))
		}
		if ref.ToleranceM <= 0 {
			errs = append(errs, fmt.Sprintf("transform.reference_points[%d]: tolerance_m must be positive", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// TransformParameters converts the transform section into validated
// parameters. Rotation is converted to radians here and nowhere else.
func (c *Config) TransformParameters() (domain.TransformParameters, error) {
	t := c.Transform

	rotation, err := rotationRadians(t.Helmert.Rotation, t.RotationUnit, t.RotationFromFullCircle)
	if err != nil {
		return domain.TransformParameters{}, err
	}

	minor := t.Projection.EllipsoidB
	if t.Projection.InverseFlattening > 0 {
		minor = geodesy.EllipsoidFromFlattening(t.Projection.EllipsoidA, t.Projection.InverseFlattening).B
	}

	p := domain.TransformParameters{
		Helmert: domain.HelmertParams{
			TX:              t.Helmert.TX,
			TY:              t.Helmert.TY,
			RotationRadians: rotation,
			Scale:           t.Helmert.Scale,
			OriginX:         t.Helmert.OriginX,
			OriginY:         t.Helmert.OriginY,
			ZOffset:         t.Helmert.ZOffset,
		},
		Projection: domain.ProjectionParams{
			OriginLatDeg:       t.Projection.OriginLat,
			OriginLonDeg:       t.Projection.OriginLon,
			ScaleFactor:        t.Projection.ScaleFactor,
			FalseEasting:       t.Projection.FalseEasting,
			FalseNorthing:      t.Projection.FalseNorthing,
			EllipsoidMajorAxis: t.Projection.EllipsoidA,
			EllipsoidMinorAxis: minor,
		},
		ProjectFrom: domain.ProjectionSource(strings.ToLower(t.ProjectFrom)),
	}

	// Building the transforms is the validation.
	if _, err := usecases.NewTransformPipeline(p, usecases.PipelineOptions{Workers: 1}); err != nil {
		return domain.TransformParameters{}, err
	}
	if p.ProjectFrom == "" {
		p.ProjectFrom = domain.ProjectFromLocal
	}
	return p, nil
}

// PipelineOptions returns the pipeline stage switches.
func (c *Config) PipelineOptions() usecases.PipelineOptions {
	return usecases.PipelineOptions{
		Geographic: c.Pipeline.Geographic,
		Normalize:  c.Pipeline.Normalize,
		Workers:    c.Pipeline.Workers,
	}
}

// ReferencePoints returns the configured control points.
func (c *Config) ReferencePoints() []domain.ReferencePoint {
	refs := make([]domain.ReferencePoint, 0, len(c.Transform.ReferencePoints))
	for i, r := range c.Transform.ReferencePoints {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("reference #%d", i+1)
		}
		refs = append(refs, domain.ReferencePoint{
			Name:       name,
			Raw:        domain.RawPoint{X: r.RawX, Y: r.RawY},
			Geo:        domain.GeoPoint{Lat: r.Lat, Lon: r.Lon},
			ToleranceM: r.ToleranceM,
		})
	}
	return refs
}

func rotationRadians(value float64, unit string, fromFullCircle bool) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: transform.helmert.rotation must be finite", domain.ErrInvalidConfig)
	}
	switch strings.ToLower(unit) {
	case "", "rad":
		if fromFullCircle {
			return value - 2*math.Pi, nil
		}
		return value, nil
	case "deg":
		if fromFullCircle {
			return geodesy.BearingDegreesToRadians(value), nil
		}
		return geodesy.DegreesToRadians(value), nil
	case "gon", "grad":
		if fromFullCircle {
			return geodesy.BearingGonsToRadians(value), nil
		}
		return geodesy.GonsToRadians(value), nil
	default:
		return 0, fmt.Errorf("%w: transform.rotation_unit must be rad, deg or gon, got %q", domain.ErrInvalidConfig, unit)
	}
}
