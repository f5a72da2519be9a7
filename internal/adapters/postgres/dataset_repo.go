package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/pkg/geospatial"
)

// DatasetRepo implements ports.DatasetRepository with pgx and PostGIS.
type DatasetRepo struct {
	db *DB
}

// NewDatasetRepo creates a new DatasetRepo.
func NewDatasetRepo(db *DB) *DatasetRepo {
	return &DatasetRepo{db: db}
}

const datasetColumns = `id, file_name, source_format, record_count, excluded_count,
	stats, geo_bounds, params_fingerprint, created_at, updated_at`

// Create inserts the dataset, its source rows and its records in one transaction.
func (r *DatasetRepo) Create(ctx context.Context, ds *domain.Dataset, rows []domain.SurveyRow, records []domain.TransformedRecord) error {
	stats, bounds, err := marshalSummary(ds)
	if err != nil {
		return err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO datasets (`+datasetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, ds.ID, ds.FileName, ds.SourceFormat, ds.RecordCount, ds.ExcludedCount,
		stats, bounds, ds.ParamsFingerprint, ds.CreatedAt, ds.UpdatedAt); err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}

	if err := copySurveyRows(ctx, tx, ds.ID, rows); err != nil {
		return err
	}
	if err := copyRecords(ctx, tx, ds.ID, records); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReplaceRecords drops all records of ds and writes the new set with the updated summary.
func (r *DatasetRepo) ReplaceRecords(ctx context.Context, ds *domain.Dataset, records []domain.TransformedRecord) error {
	stats, bounds, err := marshalSummary(ds)
	if err != nil {
		return err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	batch.Queue(`
		UPDATE datasets
		SET record_count = $2, excluded_count = $3, stats = $4, geo_bounds = $5,
		    params_fingerprint = $6, updated_at = $7
		WHERE id = $1
	`, ds.ID, ds.RecordCount, ds.ExcludedCount, stats, bounds, ds.ParamsFingerprint, ds.UpdatedAt)
	batch.Queue(`DELETE FROM boreholes WHERE dataset_id = $1`, ds.ID)

	br := tx.SendBatch(ctx, batch)
	tag, err := br.Exec()
	if err == nil && tag.RowsAffected() == 0 {
		err = domain.ErrNotFound
	}
	if err == nil {
		_, err = br.Exec()
	}
	if cerr := br.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("reset records: %w", err)
	}

	if err := copyRecords(ctx, tx, ds.ID, records); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns a dataset summary.
func (r *DatasetRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	ds, err := scanDataset(r.db.Pool.QueryRow(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// List returns a page of datasets, newest first, with the total count.
func (r *DatasetRepo) List(ctx context.Context, offset, limit int) ([]domain.Dataset, int, error) {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT count(*) FROM datasets`)
	batch.Queue(`SELECT `+datasetColumns+` FROM datasets ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	var total int
	if err := br.QueryRow().Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count datasets: %w", err)
	}

	rows, err := br.Query()
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	datasets := make([]domain.Dataset, 0, limit)
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, 0, err
		}
		datasets = append(datasets, *ds)
	}
	return datasets, total, rows.Err()
}

// Records returns a page of a dataset's records in input order.
func (r *DatasetRepo) Records(ctx context.Context, datasetID string, offset, limit int) ([]domain.TransformedRecord, int, error) {
	var total int
	err := r.db.Pool.QueryRow(ctx, `SELECT record_count FROM datasets WHERE id = $1`, datasetID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, domain.ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT record FROM boreholes
		WHERE dataset_id = $1
		ORDER BY ord
		LIMIT $2 OFFSET $3
	`, datasetID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := make([]domain.TransformedRecord, 0, limit)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, 0, err
		}
		var rec domain.TransformedRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, 0, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// SurveyRows returns the stored source rows of a dataset in upload order.
func (r *DatasetRepo) SurveyRows(ctx context.Context, datasetID string) ([]domain.SurveyRow, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT data FROM survey_rows WHERE dataset_id = $1 ORDER BY ord
	`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SurveyRow
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var row domain.SurveyRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decode survey row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Delete removes a dataset; rows and records go with it by cascade.
func (r *DatasetRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindNearby returns records whose collar lies within radiusMeters, nearest
// first. The lat/lon box lets the btree index discard most rows before
// ST_DWithin runs.
func (r *DatasetRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyBorehole, error) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, radiusMeters)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT dataset_id, record,
		       ST_Distance(collar, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM boreholes
		WHERE collar_lat BETWEEN $4 AND $6
		  AND collar_lon BETWEEN $5 AND $7
		  AND ST_DWithin(collar, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $8
	`, lon, lat, radiusMeters, minLat, minLon, maxLat, maxLon, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NearbyBorehole
	for rows.Next() {
		var nb domain.NearbyBorehole
		var raw []byte
		if err := rows.Scan(&nb.DatasetID, &raw, &nb.Distance); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &nb.Record); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, nb)
	}
	return out, rows.Err()
}

func copySurveyRows(ctx context.Context, tx pgx.Tx, datasetID string, rows []domain.SurveyRow) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"survey_rows"},
		[]string{"dataset_id", "ord", "data"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			data, err := json.Marshal(rows[i])
			if err != nil {
				return nil, err
			}
			return []any{datasetID, i, data}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy survey rows: %w", err)
	}
	return nil
}

// copyRecords writes records with their collar position. The geography
// column is generated from collar_lat/collar_lon.
func copyRecords(ctx context.Context, tx pgx.Tx, datasetID string, records []domain.TransformedRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"boreholes"},
		[]string{"dataset_id", "ord", "record_id", "name", "line", "collar_lat", "collar_lon", "record"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			data, err := json.Marshal(rec)
			if err != nil {
				return nil, err
			}
			var lat, lon *float64
			if rec.StartGeo != nil {
				lat, lon = &rec.StartGeo.Lat, &rec.StartGeo.Lon
			}
			return []any{datasetID, i, rec.ID, rec.Name, rec.Line, lat, lon, data}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy records: %w", err)
	}
	return nil
}

func marshalSummary(ds *domain.Dataset) (stats, bounds []byte, err error) {
	if ds.Stats != nil {
		if stats, err = json.Marshal(ds.Stats); err != nil {
			return nil, nil, fmt.Errorf("encode stats: %w", err)
		}
	}
	if ds.GeoBounds != nil {
		if bounds, err = json.Marshal(ds.GeoBounds); err != nil {
			return nil, nil, fmt.Errorf("encode bounds: %w", err)
		}
	}
	return stats, bounds, nil
}

func scanDataset(row pgx.Row) (*domain.Dataset, error) {
	var ds domain.Dataset
	var stats, bounds []byte
	if err := row.Scan(
		&ds.ID, &ds.FileName, &ds.SourceFormat, &ds.RecordCount, &ds.ExcludedCount,
		&stats, &bounds, &ds.ParamsFingerprint, &ds.CreatedAt, &ds.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(stats) > 0 {
		ds.Stats = new(domain.ExtentStats)
		if err := json.Unmarshal(stats, ds.Stats); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
	}
	if len(bounds) > 0 {
		ds.GeoBounds = new(domain.Bounds)
		if err := json.Unmarshal(bounds, ds.GeoBounds); err != nil {
			return nil, fmt.Errorf("decode bounds: %w", err)
		}
	}
	return &ds, nil
}
