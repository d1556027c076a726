package api

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-pulse/app/aggregator"
	"github.com/lysyi3m/rss-pulse/app/cache"
	"github.com/lysyi3m/rss-pulse/app/database"
	"github.com/lysyi3m/rss-pulse/app/feed"
	"github.com/lysyi3m/rss-pulse/app/forensics"
)

type FeedCache interface {
	Get(ctx context.Context) (*aggregator.Result, error)
	Age() (time.Duration, bool)
}

type ImageInspector interface {
	Run(ctx context.Context, imageURL string) (*forensics.Verdict, error)
}

type StatsReader interface {
	GetRecentCycles(ctx context.Context, limit int) ([]database.Cycle, error)
	GetSourceStats(ctx context.Context) ([]database.SourceStats, error)
	GetSource(ctx context.Context, url string) (*database.SourceStats, error)
}

type HealthReporter interface {
	Health(ctx context.Context) map[string]any
}

type GeneratorInterface interface {
	Run(channel feed.Channel, items []feed.Item) (string, error)
}

var (
	_ FeedCache          = (*aggregator.Cache)(nil)
	_ ImageInspector     = (*forensics.Inspector)(nil)
	_ StatsReader        = (*database.SQLStatsRepository)(nil)
	_ HealthReporter     = (*cache.Cache)(nil)
	_ GeneratorInterface = (*feed.Generator)(nil)
)

// Handler serves the aggregation results. Only the cache is required.
type Handler struct {
	cache     FeedCache
	inspector ImageInspector
	stats     StatsReader
	health    HealthReporter
	generator GeneratorInterface
	baseURL   string
	version   string
}

// SourceHealth is one entry of the /api/sources listing.
type SourceHealth struct {
	database.SourceStats
	SuccessRate float64 `json:"success_rate"`
}
