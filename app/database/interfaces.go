package database

import (
	"context"

	"github.com/lysyi3m/rss-pulse/app/aggregator"
)

type StatsRepository interface {
	RecordCycle(ctx context.Context, result *aggregator.Result) error
	GetRecentCycles(ctx context.Context, limit int) ([]Cycle, error)
	GetSourceStats(ctx context.Context) ([]SourceStats, error)
	GetSource(ctx context.Context, url string) (*SourceStats, error)
}
