package feed

import (
	"math/rand/v2"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParseSources(t *testing.T) {
	input := `https://feeds.bbci.co.uk/news/rss.xml

  https://www.theverge.com/rss/index.xml  
# comment
ftp://example.com/feed
not a url
https://feeds.bbci.co.uk/news/rss.xml
http://example.org/feed
https://
`

	urls, err := ParseSources(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{
		"https://feeds.bbci.co.uk/news/rss.xml",
		"https://www.theverge.com/rss/index.xml",
		"http://example.org/feed",
	}
	if !slices.Equal(urls, expected) {
		t.Errorf("Expected %v, got %v", expected, urls)
	}
}

func TestSourceListLoad(t *testing.T) {
	path := writeTempFile(t, "feeds.txt", "https://a.example.com/rss\nhttps://b.example.com/rss\n")

	urls, err := NewSourceList(path).Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(urls) != 2 {
		t.Errorf("Expected 2 urls, got %d", len(urls))
	}

	if _, err := NewSourceList(filepath.Join(t.TempDir(), "missing.txt")).Load(); err == nil {
		t.Error("Expected error for missing source list")
	}
}

func TestSample(t *testing.T) {
	urls := make([]string, 50)
	for i := range urls {
		urls[i] = "https://example.com/" + string(rune('a'+i%26)) + strings.Repeat("x", i)
	}
	rng := rand.New(rand.NewPCG(1, 2))

	sampled := Sample(urls, 35, rng)
	if len(sampled) != 35 {
		t.Fatalf("Expected 35 sources, got %d", len(sampled))
	}

	// Sampled sources keep their list order and are distinct.
	last := -1
	for _, u := range sampled {
		idx := slices.Index(urls, u)
		if idx <= last {
			t.Fatalf("Expected sampled sources in list order without duplicates")
		}
		last = idx
	}

	if all := Sample(urls[:10], 35, rng); !slices.Equal(all, urls[:10]) {
		t.Errorf("Expected every source when the list is smaller than the sample size")
	}
	if all := Sample(urls, 0, rng); len(all) != len(urls) {
		t.Errorf("Expected sampling to be disabled for size 0, got %d", len(all))
	}
}
