package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-pulse/app/aggregator"
)

// Refresher forces a new aggregation cycle.
type Refresher interface {
	Refresh(ctx context.Context) (*aggregator.Result, error)
}

type RefreshCacheTask struct {
	Task
	refresher Refresher
}

func NewRefreshCacheTask(trigger string, refresher Refresher) *RefreshCacheTask {
	return &RefreshCacheTask{
		Task:      NewTask(TaskTypeRefreshCache, trigger),
		refresher: refresher,
	}
}

func (t *RefreshCacheTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh aggregation cache: %w", err)
	}

	slog.Info("Task completed",
		"type", "RefreshCache",
		"trigger", t.Name,
		"cycle", result.CycleID,
		"duration", t.GetDuration(),
		"items", result.Count,
		"failed_sources", result.FailedSources())

	return nil
}
