package feed

import (
	"net/url"
	"strings"
)

const CategoryGeneral = "general"

// DefaultCategories is checked in order; the first category with a keyword
// contained in the source host/path wins.
var DefaultCategories = []Category{
	{Name: "finance", Keywords: []string{"business", "finance", "marketwatch", "bloomberg", "forbes", "fortune", "economist", "inc.com", "fastcompany", "qz.com", "entrepreneur"}},
	{Name: "sports", Keywords: []string{"espn", "sport", "skysports", "foxsports", "bleacherreport", "talksport"}},
	{Name: "tech", Keywords: []string{"tech", "verge", "wired", "arstechnica", "engadget", "gizmodo", "cnet", "zdnet", "venturebeat", "thenextweb", "9to5mac", "hacker-news", "slashdot"}},
	{Name: "science", Keywords: []string{"science", "nature.com", "nasa", "space.com", "technologyreview"}},
}

type Categorizer struct {
	categories []Category
}

func NewCategorizer(categories []Category) *Categorizer {
	if len(categories) == 0 {
		categories = DefaultCategories
	}

	normalized := make([]Category, 0, len(categories))
	for _, c := range categories {
		keywords := make([]string, 0, len(c.Keywords))
		for _, kw := range c.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		normalized = append(normalized, Category{Name: strings.TrimSpace(c.Name), Keywords: keywords})
	}

	return &Categorizer{categories: normalized}
}

// Run returns the category for a feed source URL, or "general".
func (c *Categorizer) Run(sourceURL string) string {
	target := matchTarget(sourceURL)
	if target == "" {
		return CategoryGeneral
	}

	for _, category := range c.categories {
		for _, kw := range category.Keywords {
			if strings.Contains(target, kw) {
				return category.Name
			}
		}
	}

	return CategoryGeneral
}

// Names lists the configured categories in priority order followed by "general".
func (c *Categorizer) Names() []string {
	names := make([]string, 0, len(c.categories)+1)
	for _, category := range c.categories {
		names = append(names, category.Name)
	}
	return append(names, CategoryGeneral)
}

func matchTarget(sourceURL string) string {
	u, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil || u.Host == "" {
		return strings.ToLower(sourceURL)
	}
	return strings.ToLower(u.Host + u.Path)
}
