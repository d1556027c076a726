package feed

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

type lookup func(item *gofeed.Item) (string, bool)

// imageLookups is the priority order for finding an entry's image reference.
var imageLookups = []lookup{
	explicitImage,
	imageEnclosure,
	mediaExtension,
	descriptionImage,
	contentImage,
}

// Path segments (extension stripped) that mark an <img> as an icon, spacer or
// tracking pixel.
var ignoredImageSegments = map[string]bool{
	"pixel":       true,
	"tracker":     true,
	"tracking":    true,
	"beacon":      true,
	"spacer":      true,
	"favicon":     true,
	"emoji":       true,
	"icon":        true,
	"icons":       true,
	"1x1":         true,
	"blank":       true,
	"transparent": true,
}

// Hosts (and their subdomains) that only serve ads, counters or avatars.
var ignoredImageHosts = []string{
	"doubleclick.net",
	"feeds.feedburner.com",
	"gravatar.com",
	"stats.wp.com",
}

func extractImageRef(item *gofeed.Item) string {
	ref, _ := firstOf(item, imageLookups...)
	return ref
}

func firstOf(item *gofeed.Item, lookups ...lookup) (string, bool) {
	for _, l := range lookups {
		if v, ok := l(item); ok {
			return v, true
		}
	}
	return "", false
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// explicitImage reads the itunes:image element. gofeed's item.Image is not
// used: for RSS it is filled from the first <img> of the HTML without any
// filtering.
func explicitImage(item *gofeed.Item) (string, bool) {
	if item.ITunesExt == nil {
		return "", false
	}
	return nonEmpty(item.ITunesExt.Image)
}

func imageEnclosure(item *gofeed.Item) (string, bool) {
	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enclosure.Type), "image/") {
			if ref, ok := nonEmpty(enclosure.URL); ok {
				return ref, true
			}
		}
	}
	return "", false
}

func mediaExtension(item *gofeed.Item) (string, bool) {
	media, ok := item.Extensions["media"]
	if !ok {
		return "", false
	}

	if ref, ok := mediaURL(media); ok {
		return ref, true
	}

	for _, group := range media["group"] {
		if ref, ok := mediaURL(group.Children); ok {
			return ref, true
		}
	}

	return "", false
}

func mediaURL(elements map[string][]ext.Extension) (string, bool) {
	for _, name := range []string{"content", "thumbnail"} {
		for _, e := range elements[name] {
			if medium := e.Attrs["medium"]; medium != "" && medium != "image" {
				continue
			}
			if typ := e.Attrs["type"]; typ != "" && !strings.HasPrefix(typ, "image/") {
				continue
			}
			if ref, ok := nonEmpty(e.Attrs["url"]); ok {
				return ref, true
			}
		}
	}
	return "", false
}

func descriptionImage(item *gofeed.Item) (string, bool) {
	return firstHTMLImage(item.Description)
}

func contentImage(item *gofeed.Item) (string, bool) {
	return firstHTMLImage(item.Content)
}

// firstHTMLImage returns the first <img> in the fragment that is not an icon
// or tracking pixel.
func firstHTMLImage(fragment string) (string, bool) {
	if !strings.Contains(strings.ToLower(fragment), "<img") {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", false
	}

	var ref string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := nonEmpty(s.AttrOr("src", ""))
		if !ok || strings.HasPrefix(src, "data:") {
			src, ok = nonEmpty(s.AttrOr("data-src", ""))
		}
		if !ok || isIgnoredImage(src, s) {
			return true
		}
		ref = src
		return false
	})

	return ref, ref != ""
}

func isIgnoredImage(src string, s *goquery.Selection) bool {
	for _, attr := range []string{"width", "height"} {
		if v := strings.TrimSpace(s.AttrOr(attr, "")); v == "0" || v == "1" {
			return true
		}
	}

	return isIgnoredImageURL(src)
}

func isIgnoredImageURL(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return true
	}

	host := strings.ToLower(u.Hostname())
	for _, ignored := range ignoredImageHosts {
		if host == ignored || strings.HasSuffix(host, "."+ignored) {
			return true
		}
	}

	for _, segment := range strings.Split(strings.ToLower(u.Path), "/") {
		stem := strings.TrimSuffix(segment, path.Ext(segment))
		if ignoredImageSegments[stem] {
			return true
		}
	}
	return false
}
