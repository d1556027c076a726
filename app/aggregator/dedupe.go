package aggregator

import (
	"strings"

	"github.com/lysyi3m/rss-pulse/app/feed"
	"golang.org/x/text/cases"
)

// Resolved is a candidate after image resolution. OK is false when the
// candidate had no usable image and must not be published.
type Resolved struct {
	Candidate feed.Candidate
	Image     string
	OK        bool
}

// TitleKey is the grouping key for duplicate detection: the trimmed,
// case-folded title.
func TitleKey(title string) string {
	return cases.Fold().String(strings.TrimSpace(title))
}

// Deduplicate collapses entries with the same TitleKey. The trend count of a
// group counts every candidate in it, resolved or not; the published item is
// the first candidate of the group that has an image. Items keep discovery
// order.
func Deduplicate(resolved []Resolved) []feed.Item {
	counts := make(map[string]int, len(resolved))
	canonical := make(map[string]int, len(resolved))
	items := make([]feed.Item, 0, len(resolved))

	for _, r := range resolved {
		key := TitleKey(r.Candidate.Title)
		counts[key]++

		if !r.OK {
			continue
		}
		if _, exists := canonical[key]; exists {
			continue
		}
		canonical[key] = len(items)
		items = append(items, feed.NewItem(r.Candidate, r.Image))
	}

	for key, idx := range canonical {
		items[idx].TrendCount = counts[key]
		items[idx].IsTrending = counts[key] > 1
	}

	return items
}
