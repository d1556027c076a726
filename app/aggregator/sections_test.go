package aggregator

import (
	"fmt"
	"slices"
	"testing"

	"github.com/lysyi3m/rss-pulse/app/feed"
)

func TestBuildSections(t *testing.T) {
	var items []feed.Item
	for i := range 30 {
		category := "tech"
		if i%3 == 0 {
			category = "sports"
		}
		items = append(items, feed.Item{
			Title:      fmt.Sprintf("item-%d", i),
			Category:   category,
			IsTrending: i%5 == 0,
			IsBreaking: i < 4,
			IsTop:      i < 20,
		})
	}

	sections, order := BuildSections(items, []string{"tech", "sports", "general"}, 20)

	expectedOrder := []string{SectionTrending, SectionBreaking, SectionTop, "tech", "sports", "general"}
	if !slices.Equal(order, expectedOrder) {
		t.Errorf("Expected order %v, got %v", expectedOrder, order)
	}

	if got := len(sections[SectionTrending]); got != 6 {
		t.Errorf("Expected 6 trending items, got %d", got)
	}
	if got := len(sections[SectionBreaking]); got != 4 {
		t.Errorf("Expected 4 breaking items, got %d", got)
	}
	if got := len(sections[SectionTop]); got != 20 {
		t.Errorf("Expected 20 top items, got %d", got)
	}
	if got := len(sections["tech"]); got != 20 {
		t.Errorf("Expected tech section capped at 20, got %d", got)
	}
	if got := len(sections["sports"]); got != 10 {
		t.Errorf("Expected 10 sports items, got %d", got)
	}
	if sections["general"] == nil || len(sections["general"]) != 0 {
		t.Errorf("Expected empty, non-nil general section, got %v", sections["general"])
	}

	for _, item := range sections["sports"] {
		if item.Category != "sports" {
			t.Errorf("Unexpected item in sports section: %+v", item)
		}
	}
	if sections["tech"][0].Title != "item-1" {
		t.Errorf("Expected sections to keep rank order, got %s first", sections["tech"][0].Title)
	}

	sections[SectionTop][0].Title = "changed"
	if items[0].Title != "item-0" {
		t.Error("Expected sections to hold copies of items")
	}
}
