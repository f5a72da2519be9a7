package http

import (
	"fmt"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

// maxTransformRows bounds POST /v1/transform bodies.
const maxTransformRows = 100000

// UploadResponse is returned after a survey file was stored.
type UploadResponse struct {
	Dataset    *domain.Dataset    `json:"dataset"`
	Exclusions []domain.Exclusion `json:"exclusions"`
}

// UploadDatasetHandler decodes a multipart survey file, transforms it and
// stores the result as a new dataset.
func UploadDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return errBadRequest(c, `multipart field "file" is required`)
		}
		if deps.MaxUploadBytes > 0 && fh.Size > deps.MaxUploadBytes {
			return errTooLarge(c, fmt.Sprintf("file exceeds %d bytes", deps.MaxUploadBytes))
		}

		f, err := fh.Open()
		if err != nil {
			return errInternal(c, err.Error())
		}
		defer f.Close()

		name := filepath.Base(fh.Filename)
		rows, format, err := deps.Decoder.Decode(f, name)
		if err != nil {
			return errFromDomain(c, err)
		}

		ds, result, err := deps.Datasets.Ingest(c.UserContext(), name, format, rows)
		if err != nil {
			return errFromDomain(c, err)
		}

		exclusions := result.Exclusions
		if exclusions == nil {
			exclusions = []domain.Exclusion{}
		}
		return c.Status(fiber.StatusCreated).JSON(UploadResponse{Dataset: ds, Exclusions: exclusions})
	}
}

// ListDatasetsHandler returns stored datasets, newest first.
func ListDatasetsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c, 100, 500)

		datasets, total, err := deps.Datasets.List(c.UserContext(), offset, limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		if datasets == nil {
			datasets = []domain.Dataset{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: datasets, Pagination: pg})
	}
}

// GetDatasetHandler returns a single dataset summary.
func GetDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ds, err := deps.Datasets.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(ds)
	}
}

// DeleteDatasetHandler removes a dataset with its rows and records.
func DeleteDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Datasets.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DatasetRecordsHandler returns a page of transformed records in input order.
func DatasetRecordsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c, 100, 1000)

		records, total, err := deps.Datasets.Records(c.UserContext(), c.Params("id"), offset, limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		if records == nil {
			records = []domain.TransformedRecord{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: records, Pagination: pg})
	}
}

// DatasetStatsHandler returns the extent statistics of a dataset. Stats is
// null for a dataset without records.
func DatasetStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		stats, err := deps.Datasets.Stats(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"dataset_id": id, "stats": stats})
	}
}

// DatasetGeoJSONHandler renders every record as GeoJSON features.
func DatasetGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := deps.Datasets.AllRecords(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(NewFeatureCollection(records), "application/geo+json")
	}
}

// ReprocessDatasetHandler rebuilds a dataset with the current parameters.
// With a scheduler the work is queued and 202 is returned; otherwise it
// runs inline.
func ReprocessDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		id := c.Params("id")

		if deps.Scheduler == nil {
			ds, err := deps.Datasets.Reprocess(ctx, id)
			if err != nil {
				return errFromDomain(c, err)
			}
			return c.JSON(ds)
		}

		if _, err := deps.Datasets.Get(ctx, id); err != nil {
			return errFromDomain(c, err)
		}
		runID, err := deps.Scheduler.ScheduleReprocess(ctx, id)
		if err != nil {
			return errUnavailable(c, "schedule reprocess: "+err.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"dataset_id": id,
			"run_id":     runID,
			"status":     "scheduled",
		})
	}
}

// NearbyBoreholesHandler returns stored collars within a radius of a point.
func NearbyBoreholesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		at := domain.GeoPoint{Lat: c.QueryFloat("lat", 0), Lon: c.QueryFloat("lon", 0)}
		if !at.Valid() {
			return errBadRequest(c, "lat/lon out of range")
		}
		radius := c.QueryFloat("radius", 500)
		if radius <= 0 || radius > 10000 {
			return errBadRequest(c, "radius must be between 1 and 10000 meters")
		}

		found, err := deps.Datasets.FindNearby(c.UserContext(), at.Lat, at.Lon, radius, c.QueryInt("limit", 50))
		if err != nil {
			return errFromDomain(c, err)
		}
		if found == nil {
			found = []domain.NearbyBorehole{}
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(found)
	}
}

// TransformRequest carries rows for a one-off transform.
type TransformRequest struct {
	Rows []domain.SurveyRow `json:"rows"`
}

// TransformHandler runs the pipeline over posted rows without storing
// anything.
func TransformHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req TransformRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.Rows) > maxTransformRows {
			return errTooLarge(c, fmt.Sprintf("at most %d rows per request", maxTransformRows))
		}

		result, err := deps.Datasets.Transform(c.UserContext(), req.Rows)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(result)
	}
}

// PointRequest is a single planar point in the raw or local frame.
type PointRequest struct {
	Frame string   `json:"frame"` // "raw" (default) or "local"
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Z     *float64 `json:"z,omitempty"`
}

// GeographicPointHandler converts a raw or local point to WGS 84.
func GeographicPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req PointRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.X == nil || req.Y == nil {
			return errBadRequest(c, "x and y are required")
		}

		switch req.Frame {
		case "", "raw":
			conv, err := deps.Points.FromRaw(domain.RawPoint{X: *req.X, Y: *req.Y, Z: req.Z})
			if err != nil {
				return errFromDomain(c, err)
			}
			return c.JSON(conv)
		case "local":
			conv, err := deps.Points.FromLocal(domain.LocalPoint{X: *req.X, Y: *req.Y, Z: req.Z})
			if err != nil {
				return errFromDomain(c, err)
			}
			return c.JSON(conv)
		default:
			return errBadRequest(c, "frame must be raw or local")
		}
	}
}

// ProjectedPointHandler converts a WGS 84 position to grid, local and raw
// coordinates.
func ProjectedPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Lat *float64 `json:"lat"`
			Lon *float64 `json:"lon"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}
		geo := domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon}
		if !geo.Valid() {
			return errBadRequest(c, "lat/lon out of range")
		}

		conv, err := deps.Points.FromGeographic(geo)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(conv)
	}
}
