package aggregator

import (
	"github.com/lysyi3m/rss-pulse/app/feed"
)

const DefaultSectionCap = 20

// BuildSections partitions ranked items into the trending, breaking and top
// sections followed by one section per category, each holding at most limit
// items in rank order.
func BuildSections(items []feed.Item, categories []string, limit int) (map[string][]feed.Item, []string) {
	order := append([]string{SectionTrending, SectionBreaking, SectionTop}, categories...)
	sections := make(map[string][]feed.Item, len(order))

	sections[SectionTrending] = pick(items, limit, func(item feed.Item) bool { return item.IsTrending })
	sections[SectionBreaking] = pick(items, limit, func(item feed.Item) bool { return item.IsBreaking })
	sections[SectionTop] = pick(items, limit, func(item feed.Item) bool { return item.IsTop })

	for _, category := range categories {
		sections[category] = pick(items, limit, func(item feed.Item) bool { return item.Category == category })
	}

	return sections, order
}

func pick(items []feed.Item, limit int, keep func(feed.Item) bool) []feed.Item {
	picked := make([]feed.Item, 0, min(limit, len(items)))
	for _, item := range items {
		if len(picked) >= limit {
			break
		}
		if keep(item) {
			picked = append(picked, item)
		}
	}
	return picked
}
