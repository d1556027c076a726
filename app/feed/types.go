package feed

// Feed processing types

type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// Candidate is a parsed entry that has not been validated yet.
type Candidate struct {
	Title         string
	Link          string
	Summary       string
	ImageRef      string
	Published     int64  // Unix seconds, 0 when unknown
	PublishedText string // raw date string as found in the feed
	Source        string
	SourceURL     string
	Category      string

	// body is the full stripped summary, kept for the language filter.
	body string
}

// Item is a validated, enriched news entry. Items are values; every section
// of an aggregation holds its own copies.
type Item struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Summary       string `json:"summary"`
	Published     int64  `json:"timestamp"`
	PublishedText string `json:"published"`
	Source        string `json:"source"`
	Image         string `json:"image"`
	Category      string `json:"category"`
	TrendCount    int    `json:"trending_score"`
	IsTrending    bool   `json:"is_trending"`
	IsBreaking    bool   `json:"is_breaking"`
	IsTop         bool   `json:"is_top"`
}

// NewItem promotes a candidate with a resolved image to an Item with a trend
// count of one.
func NewItem(c Candidate, image string) Item {
	return Item{
		Title:         c.Title,
		Link:          c.Link,
		Summary:       c.Summary,
		Published:     c.Published,
		PublishedText: c.PublishedText,
		Source:        c.Source,
		Image:         image,
		Category:      c.Category,
		TrendCount:    1,
	}
}

// Category configuration types

type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type CategoryConfig struct {
	Categories []Category `yaml:"categories"`
}
