package images

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	upgradedWidth   = "1200"
	upgradedQuality = "90"
)

// Rule rewrites thumbnail URLs of one publisher or CDN to a larger rendition.
// Rewrite returns the new URL, or the empty string when it has nothing to do.
type Rule struct {
	Name    string
	Match   func(u *url.URL) bool
	Rewrite func(u *url.URL) string
}

// Apply runs the rule against raw and reports whether it produced a
// different URL.
func (r Rule) Apply(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || !r.Match(u) {
		return raw, false
	}

	rewritten := r.Rewrite(cloneURL(u))
	if rewritten == "" || rewritten == raw {
		return raw, false
	}
	return rewritten, true
}

// DefaultRules is evaluated in order; only the first matching rule applies.
var DefaultRules = []Rule{
	{Name: "bbc", Match: hostIn("ichef.bbci.co.uk", "ichef.bbc.co.uk"), Rewrite: rewriteBBC},
	{Name: "nytimes", Match: hostIn("static01.nyt.com", "static.nytimes.com"), Rewrite: rewriteNYT},
	{Name: "yahoo", Match: hostIn("s.yimg.com"), Rewrite: rewriteYahoo},
	{Name: "blogger", Match: hostSuffix("blogger.googleusercontent.com", ".bp.blogspot.com"), Rewrite: rewriteBlogger},
	{Name: "photon", Match: hostIn("i0.wp.com", "i1.wp.com", "i2.wp.com", "i3.wp.com"), Rewrite: rewritePhoton},
	{Name: "cdn-params", Match: hostSuffix(".imgix.net", "images.ctfassets.net", "cdn.sanity.io", "images.unsplash.com"), Rewrite: rewriteCDNParams},
	{Name: "wordpress", Match: pathContains("/wp-content/uploads/"), Rewrite: rewriteWordPress},
}

var (
	bbcSizeSegment    = regexp.MustCompile(`^/(news|ace/standard|ace/ws)/\d{2,4}/`)
	bbcIcSegment      = regexp.MustCompile(`^/images/ic/\d+x(\d+|n)/`)
	nytCropSuffix     = regexp.MustCompile(`-(thumbStandard|thumbLarge|thumbWide|moth|articleInline|articleLarge|blog\d+|mediumThreeByTwo\d+|threeByTwo\w*|videoSixteenByNine\w*)\.(jpg|jpeg|png|webp)$`)
	bloggerSize       = regexp.MustCompile(`^(s\d+(-c)?|w\d+-h\d+(-[a-z]+)*)$`)
	wordpressSizeDims = regexp.MustCompile(`-\d+x\d+\.(jpe?g|png|gif|webp)$`)
)

func hostIn(hosts ...string) func(*url.URL) bool {
	return func(u *url.URL) bool {
		host := strings.ToLower(u.Hostname())
		for _, h := range hosts {
			if host == h {
				return true
			}
		}
		return false
	}
}

func hostSuffix(suffixes ...string) func(*url.URL) bool {
	return func(u *url.URL) bool {
		host := strings.ToLower(u.Hostname())
		for _, s := range suffixes {
			if host == strings.TrimPrefix(s, ".") || strings.HasSuffix(host, s) {
				return true
			}
		}
		return false
	}
}

func pathContains(fragment string) func(*url.URL) bool {
	return func(u *url.URL) bool {
		return strings.Contains(u.Path, fragment)
	}
}

// ichef.bbci.co.uk/news/240/cpsprodpb/... -> /news/1024/...
func rewriteBBC(u *url.URL) string {
	switch {
	case bbcSizeSegment.MatchString(u.Path):
		m := bbcSizeSegment.FindStringSubmatch(u.Path)
		setPath(u, "/"+m[1]+"/1024/"+u.Path[len(m[0]):])
	case bbcIcSegment.MatchString(u.Path):
		setPath(u, bbcIcSegment.ReplaceAllString(u.Path, "/images/ic/1024xn/"))
	default:
		return ""
	}
	return u.String()
}

// static01.nyt.com/images/.../photo-thumbStandard.jpg -> photo-superJumbo.jpg
func rewriteNYT(u *url.URL) string {
	if !nytCropSuffix.MatchString(u.Path) {
		return ""
	}
	setPath(u, nytCropSuffix.ReplaceAllString(u.Path, "-superJumbo.$2"))
	u.RawQuery = ""
	return u.String()
}

// s.yimg.com/ny/api/res/1.2/<token>/https://media.zenfs.com/... carries the
// original image URL after the resize parameters.
func rewriteYahoo(u *url.URL) string {
	for _, scheme := range []string{"/https://", "/http://", "/https:/", "/http:/"} {
		idx := strings.Index(u.Path, scheme)
		if idx < 0 {
			continue
		}

		embedded := u.Path[idx+1:]
		if !strings.Contains(embedded, "://") {
			embedded = strings.Replace(embedded, ":/", "://", 1)
		}

		original, err := url.Parse(embedded)
		if err != nil || original.Host == "" {
			return ""
		}
		return original.String()
	}
	return ""
}

// Blogger serves sizes as a path segment: /s72-c/, /w400-h300/, /s320/.
func rewriteBlogger(u *url.URL) string {
	segments := strings.Split(u.Path, "/")
	changed := false
	for i, segment := range segments {
		if segment != "s1600" && bloggerSize.MatchString(segment) {
			segments[i] = "s1600"
			changed = true
		}
	}
	if !changed {
		return ""
	}
	setPath(u, strings.Join(segments, "/"))
	return u.String()
}

// Photon (i0.wp.com) resizes via resize/fit/w/h query params.
func rewritePhoton(u *url.URL) string {
	q := u.Query()
	for _, key := range []string{"resize", "fit", "h"} {
		q.Del(key)
	}
	q.Set("w", upgradedWidth)
	u.RawQuery = q.Encode()
	return u.String()
}

// Image CDNs that size renditions with width/quality query params.
func rewriteCDNParams(u *url.URL) string {
	q := u.Query()
	changed := false

	for _, key := range []string{"w", "width"} {
		if q.Has(key) {
			q.Set(key, upgradedWidth)
			changed = true
		}
	}
	for _, key := range []string{"q", "quality"} {
		if q.Has(key) {
			q.Set(key, upgradedQuality)
			changed = true
		}
	}
	if !changed {
		return ""
	}

	for _, key := range []string{"h", "height"} {
		q.Del(key)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// WordPress generates photo-300x200.jpg renditions next to photo.jpg.
func rewriteWordPress(u *url.URL) string {
	if !wordpressSizeDims.MatchString(u.Path) {
		return ""
	}
	setPath(u, wordpressSizeDims.ReplaceAllString(u.Path, ".$1"))
	return u.String()
}

func setPath(u *url.URL, p string) {
	u.Path = p
	u.RawPath = ""
}

func cloneURL(u *url.URL) *url.URL {
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}
