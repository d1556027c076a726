package database

import (
	"time"
)

type Cycle struct {
	ID            string    `json:"id"`
	GeneratedAt   time.Time `json:"generated_at"`
	Sources       int       `json:"sources"`
	FailedSources int       `json:"failed_sources"`
	Items         int       `json:"items"`
	Trending      int       `json:"trending"`
	Breaking      int       `json:"breaking"`
}

// SourceStats is the running health record of one feed source.
type SourceStats struct {
	URL                 string     `json:"url"`
	Title               string     `json:"title"`
	Attempts            int        `json:"attempts"`
	Failures            int        `json:"failures"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastStatus          string     `json:"last_status"`
	LastError           string     `json:"last_error,omitempty"`
	LastHTTPStatus      int        `json:"last_http_status,omitempty"`
	LastCandidates      int        `json:"last_candidates"`
	LastDurationMs      int64      `json:"last_duration_ms"`
	LastFetchedAt       time.Time  `json:"last_fetched_at"`
	LastSuccessAt       *time.Time `json:"last_success_at"`
}

// SuccessRate is the share of successful attempts, 0 when never attempted.
func (s SourceStats) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Attempts-s.Failures) / float64(s.Attempts)
}
