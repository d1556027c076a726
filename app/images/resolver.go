package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultProbeTimeout = 3 * time.Second

type Options struct {
	ProbeTimeout time.Duration
	UserAgent    string
}

// Resolver turns a raw image reference into an absolute, preferably
// full-size image URL.
type Resolver struct {
	httpClient   *http.Client
	probeTimeout time.Duration
	userAgent    string
	rules        []Rule
}

func NewResolver(httpClient *http.Client, opts Options, rules []Rule) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if rules == nil {
		rules = DefaultRules
	}

	return &Resolver{
		httpClient:   httpClient,
		probeTimeout: opts.ProbeTimeout,
		userAgent:    opts.UserAgent,
		rules:        rules,
	}
}

// Run resolves ref, found in an entry whose link is base. ok is false when no
// usable absolute URL can be derived and the entry should be dropped.
func (r *Resolver) Run(ctx context.Context, ref, base string) (string, bool) {
	original, ok := Normalize(ref, base)
	if !ok {
		return "", false
	}

	upgraded, rule := r.Upgrade(original)
	if rule == "" {
		return original, true
	}

	if err := r.probe(ctx, upgraded); err != nil {
		slog.Debug("Image upgrade rejected", "rule", rule, "url", upgraded, "error", err)
		return original, true
	}

	return upgraded, true
}

// Upgrade applies the first matching rule and returns the rewritten URL with
// the rule's name, or raw and "" when no rule changed it.
func (r *Resolver) Upgrade(raw string) (string, string) {
	u, err := url.Parse(raw)
	if err != nil {
		return raw, ""
	}

	for _, rule := range r.rules {
		if !rule.Match(u) {
			continue
		}
		if rewritten, ok := rule.Apply(raw); ok {
			if _, ok := Normalize(rewritten, ""); ok {
				return rewritten, rule.Name
			}
		}
		return raw, ""
	}

	return raw, ""
}

func (r *Resolver) probe(ctx context.Context, imageURL string) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodHead, imageURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to probe image: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return nil
}

// Normalize makes ref an absolute http(s) URL. Protocol-relative refs get
// https; relative refs are resolved against base when base is absolute.
func Normalize(ref, base string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(strings.ToLower(ref), "data:") {
		return "", false
	}
	if strings.HasPrefix(ref, "//") {
		ref = "https:" + ref
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}

	if !u.IsAbs() {
		b, err := url.Parse(strings.TrimSpace(base))
		if err != nil || !isHTTP(b) {
			return "", false
		}
		u = b.ResolveReference(u)
	}

	if !isHTTP(u) {
		return "", false
	}
	return u.String(), true
}

func isHTTP(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
