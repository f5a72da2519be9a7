package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ReprocessInput is the input for the reprocess workflow.
type ReprocessInput struct {
	DatasetID string
	// Force reprocesses even when the stored parameters match the current ones.
	Force bool
}

// ReprocessWorkflow rebuilds a stored dataset with the worker's current
// transform parameters. Datasets that are gone or already current are skipped.
func ReprocessWorkflow(ctx workflow.Context, input ReprocessInput) (ReprocessResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting reprocess workflow", "datasetID", input.DatasetID, "force", input.Force)

	checkCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	var status DatasetStatus
	if err := workflow.ExecuteActivity(checkCtx, ActivityCheckDataset, input.DatasetID).Get(ctx, &status); err != nil {
		return ReprocessResult{}, err
	}
	if !status.Exists {
		logger.Warn("dataset not found, skipping", "datasetID", input.DatasetID)
		return ReprocessResult{DatasetID: input.DatasetID, Skipped: "not found"}, nil
	}
	if !status.Stale && !input.Force {
		logger.Info("dataset already current", "datasetID", input.DatasetID)
		return ReprocessResult{DatasetID: input.DatasetID, Skipped: "up to date", Fingerprint: status.Fingerprint}, nil
	}

	// Large files take a while; the transaction is all-or-nothing so a retry is safe.
	runCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	var result ReprocessResult
	if err := workflow.ExecuteActivity(runCtx, ActivityReprocessDataset, input.DatasetID).Get(ctx, &result); err != nil {
		return ReprocessResult{}, err
	}

	logger.Info("Dataset reprocessed", "datasetID", input.DatasetID, "records", result.RecordCount)
	return result, nil
}
