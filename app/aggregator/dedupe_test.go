package aggregator

import (
	"fmt"
	"testing"

	"github.com/lysyi3m/rss-pulse/app/feed"
)

func resolvedItem(title, image string) Resolved {
	return Resolved{
		Candidate: feed.Candidate{Title: title, Link: "https://example.com/" + title, Source: "Example"},
		Image:     image,
		OK:        image != "",
	}
}

func TestDeduplicate_TrendCount(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			var resolved []Resolved
			for i := range n {
				resolved = append(resolved, resolvedItem("Same Story", fmt.Sprintf("https://img.example.com/%d.jpg", i)))
			}

			items := Deduplicate(resolved)

			if len(items) != 1 {
				t.Fatalf("Expected exactly 1 item, got %d", len(items))
			}
			if items[0].TrendCount != n {
				t.Errorf("Expected trend count %d, got %d", n, items[0].TrendCount)
			}
			if items[0].IsTrending != (n > 1) {
				t.Errorf("Expected is_trending=%t, got %t", n > 1, items[0].IsTrending)
			}
			if items[0].Image != "https://img.example.com/0.jpg" {
				t.Errorf("Expected first occurrence to be canonical, got image %s", items[0].Image)
			}
		})
	}
}

func TestDeduplicate_NormalizesTitles(t *testing.T) {
	resolved := []Resolved{
		resolvedItem("Markets Rally", "https://img.example.com/1.jpg"),
		resolvedItem("Other Story", "https://img.example.com/2.jpg"),
		resolvedItem("  markets rally ", "https://img.example.com/3.jpg"),
		resolvedItem("MARKETS RALLY", "https://img.example.com/4.jpg"),
		resolvedItem("Straße", "https://img.example.com/5.jpg"),
		resolvedItem("STRASSE", "https://img.example.com/6.jpg"),
	}

	items := Deduplicate(resolved)

	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	if items[0].Title != "Markets Rally" || items[0].TrendCount != 3 {
		t.Errorf("Expected 'Markets Rally' with trend count 3, got %q with %d", items[0].Title, items[0].TrendCount)
	}
	if items[1].Title != "Other Story" || items[1].TrendCount != 1 || items[1].IsTrending {
		t.Errorf("Unexpected second item: %+v", items[1])
	}
	if items[2].TrendCount != 2 {
		t.Errorf("Expected case folding to group 'Straße' and 'STRASSE', got trend count %d", items[2].TrendCount)
	}
}

func TestDeduplicate_CountsUnresolvedCandidates(t *testing.T) {
	resolved := []Resolved{
		resolvedItem("Story", ""),
		resolvedItem("Lonely", ""),
		resolvedItem("First", "https://img.example.com/first.jpg"),
		resolvedItem("story", "https://img.example.com/story.jpg"),
	}

	items := Deduplicate(resolved)

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].Title != "First" {
		t.Errorf("Expected items in discovery order of their canonical entry, got %q first", items[0].Title)
	}
	if items[1].Title != "story" || items[1].TrendCount != 2 {
		t.Errorf("Expected first resolved member with trend count 2, got %q with %d", items[1].Title, items[1].TrendCount)
	}
	for _, item := range items {
		if item.Image == "" {
			t.Errorf("Expected every item to carry an image, %q has none", item.Title)
		}
	}
}

func TestTitleKey(t *testing.T) {
	if TitleKey("  Hello World\t") != TitleKey("hello world") {
		t.Error("Expected trimmed, case-insensitive keys to match")
	}
	if TitleKey("Hello  World") == TitleKey("Hello World") {
		t.Error("Expected inner whitespace to be significant")
	}
}
