package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 20
	DefaultTimeout     = 8 * time.Second
	// MaxBodySize caps how much of a feed document is read.
	MaxBodySize = 10 << 20

	acceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.9, */*;q=0.8"
)

// Document is the outcome of fetching one source. Exactly one of Data and Err
// is meaningful.
type Document struct {
	URL      string
	Data     []byte
	Err      error
	Status   int
	Duration time.Duration
}

func (d Document) OK() bool {
	return d.Err == nil
}

type Options struct {
	Concurrency int
	Timeout     time.Duration
	UserAgent   string
}

// Fetcher downloads feed documents with a bounded number of requests in
// flight.
type Fetcher struct {
	httpClient  *http.Client
	concurrency int
	timeout     time.Duration
	userAgent   string
}

func New(httpClient *http.Client, opts Options) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Fetcher{
		httpClient:  httpClient,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		userAgent:   opts.UserAgent,
	}
}

// Run fetches every URL and returns one Document per input, in input order.
// A failing source never affects the others.
func (f *Fetcher) Run(ctx context.Context, urls []string) []Document {
	docs := make([]Document, len(urls))

	var g errgroup.Group
	g.SetLimit(f.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			docs[i] = f.fetch(ctx, url)
			return nil
		})
	}

	_ = g.Wait()

	return docs
}

func (f *Fetcher) fetch(ctx context.Context, url string) Document {
	start := time.Now()
	doc := Document{URL: url}

	data, status, err := f.fetchFeed(ctx, url)
	doc.Data, doc.Status, doc.Err = data, status, err
	doc.Duration = time.Since(start)

	if err != nil {
		slog.Warn("Feed fetch failed", "url", url, "duration", doc.Duration, "error", err)
	} else {
		slog.Debug("Feed fetched", "url", url, "bytes", len(data), "duration", doc.Duration)
	}

	return doc
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.StatusCode, nil
}
