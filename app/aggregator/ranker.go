package aggregator

import (
	"cmp"
	"slices"
	"time"

	"github.com/lysyi3m/rss-pulse/app/feed"
)

const (
	DefaultTopN           = 20
	DefaultBreakingWindow = 7200 * time.Second
)

// Rank sorts items newest first, keeping discovery order among equal
// timestamps, and sets the top and breaking flags. Unknown timestamps (0)
// sort last and are never breaking.
func Rank(items []feed.Item, now time.Time, topN int, window time.Duration) {
	slices.SortStableFunc(items, func(a, b feed.Item) int {
		return cmp.Compare(b.Published, a.Published)
	})

	cutoff := int64(window / time.Second)
	nowUnix := now.Unix()

	for i := range items {
		items[i].IsTop = i < topN
		items[i].IsBreaking = items[i].Published > 0 && nowUnix-items[i].Published < cutoff
	}
}
