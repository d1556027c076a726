package aggregator

import (
	"time"

	"github.com/lysyi3m/rss-pulse/app/feed"
)

const (
	SectionTrending = "trending"
	SectionBreaking = "breaking"
	SectionTop      = "top"
)

const (
	SourceStatusOK         = "ok"
	SourceStatusFetchError = "fetch_error"
	SourceStatusParseError = "parse_error"
)

// SourceReport describes how one feed source fared in a cycle.
type SourceReport struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Status     string `json:"status"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Candidates int    `json:"candidates"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func (r SourceReport) OK() bool {
	return r.Status == SourceStatusOK
}

// Result is the output of one aggregation cycle. A Result is never modified
// after it has been returned.
type Result struct {
	CycleID      string                 `json:"cycle_id"`
	GeneratedAt  time.Time              `json:"generated_at"`
	Count        int                    `json:"count"`
	Items        []feed.Item            `json:"items"`
	Top          []feed.Item            `json:"data"`
	Sections     map[string][]feed.Item `json:"sections"`
	SectionOrder []string               `json:"section_order"`
	Sources      []SourceReport         `json:"sources"`
}

// Section returns the named section and whether it exists.
func (r *Result) Section(name string) ([]feed.Item, bool) {
	items, ok := r.Sections[name]
	return items, ok
}

func (r *Result) FailedSources() int {
	failed := 0
	for _, s := range r.Sources {
		if !s.OK() {
			failed++
		}
	}
	return failed
}
