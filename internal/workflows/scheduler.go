package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
)

// WorkflowIDPrefix plus the dataset ID names a reprocess run. Starting a
// second reprocess of the same dataset while one is running attaches to it.
const WorkflowIDPrefix = "drillmap-reprocess-"

// Scheduler implements ports.ReprocessScheduler on Temporal.
type Scheduler struct {
	client    client.Client
	taskQueue string
}

// NewScheduler creates a Scheduler starting workflows on taskQueue.
func NewScheduler(c client.Client, taskQueue string) *Scheduler {
	return &Scheduler{client: c, taskQueue: taskQueue}
}

// ScheduleReprocess starts (or joins) the reprocess workflow for a dataset
// and returns its run ID. The request always forces a rebuild.
func (s *Scheduler) ScheduleReprocess(ctx context.Context, datasetID string) (string, error) {
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowIDPrefix + datasetID,
		TaskQueue: s.taskQueue,
	}, ReprocessWorkflow, ReprocessInput{DatasetID: datasetID, Force: true})
	if err != nil {
		return "", fmt.Errorf("start reprocess workflow: %w", err)
	}
	return run.GetRunID(), nil
}

// ScheduleIfStale starts a non-forced run; the workflow skips current datasets.
func (s *Scheduler) ScheduleIfStale(ctx context.Context, datasetID string) (string, error) {
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowIDPrefix + datasetID,
		TaskQueue: s.taskQueue,
	}, ReprocessWorkflow, ReprocessInput{DatasetID: datasetID})
	if err != nil {
		return "", fmt.Errorf("start reprocess workflow: %w", err)
	}
	return run.GetRunID(), nil
}
