package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lysyi3m/rss-pulse/app/feed"
	"github.com/lysyi3m/rss-pulse/app/fetcher"
	"github.com/lysyi3m/rss-pulse/app/images"
	"golang.org/x/sync/errgroup"
)

type SourceLoader interface {
	Load() ([]string, error)
}

// Recorder persists cycle outcomes. Failures are logged and never fail the
// cycle.
type Recorder interface {
	RecordCycle(ctx context.Context, result *Result) error
}

// Publisher mirrors the latest result to an external store.
type Publisher interface {
	Publish(ctx context.Context, result *Result) error
}

type Options struct {
	SampleSize     int
	Concurrency    int
	SectionCap     int
	BreakingWindow time.Duration
	// Categories lists category sections in display order.
	Categories []string
}

// Pipeline runs one aggregation cycle: load and sample sources, fetch, parse,
// resolve images, deduplicate, rank and section.
type Pipeline struct {
	sources  SourceLoader
	fetcher  *fetcher.Fetcher
	parser   *feed.Parser
	resolver *images.Resolver
	opts     Options

	recorder  Recorder
	publisher Publisher

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

func NewPipeline(sources SourceLoader, f *fetcher.Fetcher, parser *feed.Parser, resolver *images.Resolver, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = fetcher.DefaultConcurrency
	}
	if opts.SectionCap <= 0 {
		opts.SectionCap = DefaultSectionCap
	}
	if opts.BreakingWindow <= 0 {
		opts.BreakingWindow = DefaultBreakingWindow
	}
	if len(opts.Categories) == 0 {
		opts.Categories = feed.NewCategorizer(nil).Names()
	}

	return &Pipeline{
		sources:  sources,
		fetcher:  f,
		parser:   parser,
		resolver: resolver,
		opts:     opts,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:      time.Now,
	}
}

func (p *Pipeline) WithRecorder(r Recorder) *Pipeline {
	p.recorder = r
	return p
}

func (p *Pipeline) WithPublisher(pub Publisher) *Pipeline {
	p.publisher = pub
	return p
}

func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := p.now()

	urls, err := p.sources.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}

	sampled := p.sample(urls)
	docs := p.fetcher.Run(ctx, sampled)

	candidates, reports := p.parseAll(docs)

	resolved := p.resolveImages(ctx, candidates)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregation cycle aborted: %w", err)
	}

	items := Deduplicate(resolved)
	Rank(items, started, DefaultTopN, p.opts.BreakingWindow)
	sections, order := BuildSections(items, p.opts.Categories, p.opts.SectionCap)

	result := &Result{
		CycleID:      uuid.NewString(),
		GeneratedAt:  p.now(),
		Count:        len(items),
		Items:        items,
		Top:          append([]feed.Item(nil), items[:min(DefaultTopN, len(items))]...),
		Sections:     sections,
		SectionOrder: order,
		Sources:      reports,
	}
	if result.Top == nil {
		result.Top = []feed.Item{}
	}

	p.afterCycle(ctx, result)

	slog.Info("Aggregation completed",
		"cycle", result.CycleID,
		"sources", len(sampled),
		"failed", result.FailedSources(),
		"candidates", len(candidates),
		"items", result.Count,
		"duration", time.Since(started))

	return result, nil
}

func (p *Pipeline) sample(urls []string) []string {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return feed.Sample(urls, p.opts.SampleSize, p.rng)
}

func (p *Pipeline) parseAll(docs []fetcher.Document) ([]feed.Candidate, []SourceReport) {
	var candidates []feed.Candidate
	reports := make([]SourceReport, 0, len(docs))

	for _, doc := range docs {
		report := SourceReport{
			URL:        doc.URL,
			HTTPStatus: doc.Status,
			DurationMs: doc.Duration.Milliseconds(),
		}

		if !doc.OK() {
			report.Status = SourceStatusFetchError
			report.Error = doc.Err.Error()
			reports = append(reports, report)
			continue
		}

		metadata, parsed, err := p.parser.Run(doc.Data, doc.URL)
		if err != nil {
			slog.Warn("Feed parse failed", "url", doc.URL, "error", err)
			report.Status = SourceStatusParseError
			report.Error = err.Error()
			reports = append(reports, report)
			continue
		}

		report.Status = SourceStatusOK
		report.Title = metadata.Title
		report.Candidates = len(parsed)
		reports = append(reports, report)

		candidates = append(candidates, parsed...)
	}

	return candidates, reports
}

// resolveImages resolves every candidate's image under the same concurrency
// limit as fetching. Results are stored by index, so completion order does
// not matter.
func (p *Pipeline) resolveImages(ctx context.Context, candidates []feed.Candidate) []Resolved {
	resolved := make([]Resolved, len(candidates))

	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)

	for i, candidate := range candidates {
		g.Go(func() error {
			image, ok := p.resolver.Run(ctx, candidate.ImageRef, candidate.Link)
			if !ok {
				slog.Debug("Candidate dropped without image", "title", candidate.Title, "source", candidate.SourceURL)
			}
			resolved[i] = Resolved{Candidate: candidate, Image: image, OK: ok}
			return nil
		})
	}

	_ = g.Wait()

	return resolved
}

func (p *Pipeline) afterCycle(ctx context.Context, result *Result) {
	if p.recorder != nil {
		if err := p.recorder.RecordCycle(ctx, result); err != nil {
			slog.Warn("Failed to record aggregation cycle", "cycle", result.CycleID, "error", err)
		}
	}
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, result); err != nil {
			slog.Warn("Failed to publish aggregation snapshot", "cycle", result.CycleID, "error", err)
		}
	}
}
