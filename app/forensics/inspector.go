package forensics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/rss-pulse/app/images"
	"golang.org/x/time/rate"
)

const (
	// MaxImageSize caps how much of an image is downloaded for analysis.
	MaxImageSize = 15 << 20

	DefaultDownloadTimeout = 10 * time.Second
)

var (
	ErrInvalidURL         = errors.New("invalid image url")
	ErrThrottled          = errors.New("analysis rate limit exceeded")
	ErrUnsupportedContent = errors.New("unsupported content type")
	ErrImageTooLarge      = errors.New("image too large")
)

type InspectorOptions struct {
	// Rate is the sustained number of analyses per second.
	Rate      float64
	Burst     int
	Timeout   time.Duration
	UserAgent string
}

// Inspector downloads a published image and runs it through an Analyzer.
type Inspector struct {
	analyzer   Analyzer
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	userAgent  string
}

func NewInspector(analyzer Analyzer, httpClient *http.Client, opts InspectorOptions) *Inspector {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.Rate <= 0 {
		opts.Rate = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = max(1, int(opts.Rate))
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultDownloadTimeout
	}

	return &Inspector{
		analyzer:   analyzer,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst),
		timeout:    opts.Timeout,
		userAgent:  opts.UserAgent,
	}
}

func (i *Inspector) Run(ctx context.Context, imageURL string) (*Verdict, error) {
	normalized, ok := images.Normalize(imageURL, "")
	if !ok {
		return nil, ErrInvalidURL
	}

	if !i.limiter.Allow() {
		return nil, ErrThrottled
	}

	start := time.Now()

	data, err := i.download(ctx, normalized)
	if err != nil {
		return nil, err
	}

	verdict, err := i.analyzer.Analyze(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}

	slog.Info("Image analyzed",
		"url", normalized,
		"bytes", len(data),
		"label", verdict.Label,
		"trust_score", verdict.TrustScore,
		"duration", time.Since(start))

	return verdict, nil
}

func (i *Inspector) download(ctx context.Context, imageURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if i.userAgent != "" {
		req.Header.Set("User-Agent", i.userAgent)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContent, contentType)
	}

	if resp.ContentLength > MaxImageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, MaxImageSize)
	}

	return data, nil
}
