package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const (
	DefaultMaxEntries = 15
	DefaultTitle      = "No Title"
	summaryLimit      = 200
	summaryEllipsis   = "..."
)

type Parser struct {
	gofeedParser *gofeed.Parser
	categorizer  *Categorizer
	filterer     *Filterer
	maxEntries   int
}

func NewParser(categorizer *Categorizer, filterer *Filterer, maxEntries int) *Parser {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &Parser{
		gofeedParser: gofeed.NewParser(),
		categorizer:  categorizer,
		filterer:     filterer,
		maxEntries:   maxEntries,
	}
}

// Run parses one raw feed document fetched from sourceURL.
func (p *Parser) Run(data []byte, sourceURL string) (*Metadata, []Candidate, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, fmt.Errorf("failed to parse feed: empty document")
	}

	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       strings.TrimSpace(feed.Title),
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
	}

	source := cmp.Or(metadata.Title, hostOf(sourceURL))
	category := p.categorizer.Run(sourceURL)

	entries := feed.Items
	if len(entries) > p.maxEntries {
		entries = entries[:p.maxEntries]
	}

	candidates := make([]Candidate, 0, len(entries))
	for _, item := range entries {
		if item == nil {
			continue
		}
		candidate := p.normalizeItem(item)
		candidate.Source = source
		candidate.SourceURL = sourceURL
		candidate.Category = category
		candidates = append(candidates, candidate)
	}

	return metadata, p.filterer.Run(candidates), nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Candidate {
	body := stripHTML(cmp.Or(item.Description, item.Content))

	candidate := Candidate{
		Title:    cmp.Or(strings.TrimSpace(item.Title), DefaultTitle),
		Link:     strings.TrimSpace(item.Link),
		Summary:  truncateSummary(body),
		ImageRef: extractImageRef(item),
		body:     body,
	}

	candidate.Published, candidate.PublishedText = publishedOf(item)

	return candidate
}

func publishedOf(item *gofeed.Item) (int64, string) {
	text := cmp.Or(item.Published, item.Updated)

	var parsed *time.Time
	if item.PublishedParsed != nil {
		parsed = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		parsed = item.UpdatedParsed
	}

	if parsed == nil {
		return 0, text
	}

	ts := parsed.Unix()
	if ts <= 0 {
		return 0, text
	}
	return ts, text
}

// stripHTML returns the visible text of an HTML fragment with whitespace
// collapsed.
func stripHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style").Remove()

	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncateSummary(s string) string {
	runes := []rune(s)
	if len(runes) <= summaryLimit {
		return s
	}
	return string(runes[:summaryLimit]) + summaryEllipsis
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Hostname()
}
