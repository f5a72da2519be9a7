package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/core/usecases"
)

// Activity names, registered from ReprocessActivities' method names.
const (
	ActivityCheckDataset     = "CheckDataset"
	ActivityReprocessDataset = "ReprocessDataset"
)

// DatasetStatus reports whether a dataset exists and was built with
// parameters other than the worker's current ones.
type DatasetStatus struct {
	Exists      bool
	Stale       bool
	Fingerprint string
}

// ReprocessResult summarizes a reprocessing run.
type ReprocessResult struct {
	DatasetID     string
	Skipped       string // reason when nothing was done
	RecordCount   int
	ExcludedCount int
	Fingerprint   string
}

// ReprocessActivities holds the activity implementations for the reprocess workflow.
type ReprocessActivities struct {
	Datasets *usecases.DatasetService
}

// CheckDataset looks up a dataset. A missing dataset is not an error.
func (a *ReprocessActivities) CheckDataset(ctx context.Context, datasetID string) (DatasetStatus, error) {
	ds, err := a.Datasets.Get(ctx, datasetID)
	if errors.Is(err, domain.ErrNotFound) {
		return DatasetStatus{}, nil
	}
	if err != nil {
		return DatasetStatus{}, fmt.Errorf("get dataset %s: %w", datasetID, err)
	}
	return DatasetStatus{Exists: true, Stale: a.Datasets.IsStale(ds), Fingerprint: ds.ParamsFingerprint}, nil
}

// ReprocessDataset reruns the pipeline over the stored survey rows.
func (a *ReprocessActivities) ReprocessDataset(ctx context.Context, datasetID string) (ReprocessResult, error) {
	ds, err := a.Datasets.Reprocess(ctx, datasetID)
	if errors.Is(err, domain.ErrNotFound) {
		return ReprocessResult{}, temporal.NewNonRetryableApplicationError("dataset not found", "NotFound", err)
	}
	if err != nil {
		return ReprocessResult{}, fmt.Errorf("reprocess %s: %w", datasetID, err)
	}
	slog.InfoContext(ctx, "reprocess activity done", "dataset_id", datasetID, "records", ds.RecordCount)
	return ReprocessResult{
		DatasetID:     ds.ID,
		RecordCount:   ds.RecordCount,
		ExcludedCount: ds.ExcludedCount,
		Fingerprint:   ds.ParamsFingerprint,
	}, nil
}
