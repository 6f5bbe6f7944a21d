package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
	"NewsBrief/internal/scanner"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
// Summarizer, Dispatcher and Notifier are optional.
type PipelineDeps struct {
	Crawler    *Crawler
	Gate       *Gate
	Summarizer ports.Summarizer
	Dispatcher *Dispatcher
	Notifier   ports.Notifier
	Targets    []scanner.Target
	Logger     *slog.Logger
}

// PipelineOptions tunes one pipeline.
type PipelineOptions struct {
	Concurrency        int
	DispatchEnrichment bool
}

// RunReport is what one pipeline run achieved.
type RunReport struct {
	Crawl      CrawlStats          `json:"crawl"`
	Batch      BatchResult         `json:"batch"`
	Summarized int                 `json:"summarized"`
	Dispatched []domain.TaskHandle `json:"dispatched,omitempty"`
}

// Pipeline implements the crawl, summarize, save and enrich workflow.
type Pipeline struct {
	crawler    *Crawler
	gate       *Gate
	summarizer ports.Summarizer
	dispatcher *Dispatcher
	notifier   ports.Notifier
	targets    []scanner.Target
	opts       PipelineOptions
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, opts PipelineOptions) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = int(permits(0))
	}
	return &Pipeline{
		crawler:    deps.Crawler,
		gate:       deps.Gate,
		summarizer: deps.Summarizer,
		dispatcher: deps.Dispatcher,
		notifier:   deps.Notifier,
		targets:    deps.Targets,
		opts:       opts,
		logger:     logger.With("component", "pipeline"),
	}
}

// Run crawls every target once and persists the outcome. Only a canceled
// context is reported as an error; item failures are counted in the report.
func (p *Pipeline) Run(ctx context.Context, trigger time.Time) (RunReport, error) {
	var report RunReport
	if p.crawler == nil || p.gate == nil {
		return report, nil
	}

	p.logger.Info("pipeline started", "trigger", trigger, "targets", len(p.targets))

	crawled := p.crawler.Crawl(ctx, p.targets, p.opts.Concurrency)
	report.Crawl = crawled.Stats
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("crawl: %w", err)
	}

	articles := crawled.Articles
	report.Summarized = p.summarize(ctx, articles)

	report.Batch = p.gate.IngestBatch(ctx, articles)

	if p.opts.DispatchEnrichment && p.dispatcher != nil && len(report.Batch.Created) > 0 {
		report.Dispatched = p.dispatcher.DispatchEnrichment(ctx, report.Batch.Created)
	}

	message := buildRunMessage(report)
	p.logger.Info("pipeline finished", "report", message)

	if p.notifier != nil && (report.Batch.Total > 0 || report.Crawl.Failed > 0) {
		if err := p.notifier.PublishReport(ctx, message); err != nil {
			p.logger.Warn("report not delivered", "error", err)
		}
	}
	return report, nil
}

// summarize replaces each body with its summary in place, keeping the raw
// body when the provider fails.
func (p *Pipeline) summarize(ctx context.Context, articles []domain.RawArticle) int {
	if p.summarizer == nil || len(articles) == 0 {
		return 0
	}

	done := make([]bool, len(articles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i := range articles {
		g.Go(func() error {
			summary, err := p.summarizer.Summarize(gctx, articles[i].Body)
			if err != nil {
				p.logger.Warn("summary failed, keeping raw body", "url", articles[i].URL, "error", err)
				return nil
			}
			if strings.TrimSpace(summary) == "" {
				return nil
			}
			articles[i].Body = summary
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	count := 0
	for _, ok := range done {
		if ok {
			count++
		}
	}
	return count
}

func buildRunMessage(r RunReport) string {
	return fmt.Sprintf("crawled %d (failed %d, skipped %d, %.1f%%) in %s; summarized %d; saved %d of %d (duplicate %d, failed %d); dispatched %d",
		r.Crawl.Processed,
		r.Crawl.Failed,
		r.Crawl.Skipped,
		r.Crawl.SuccessRate(),
		r.Crawl.Elapsed.Round(time.Millisecond),
		r.Summarized,
		r.Batch.Saved,
		r.Batch.Total,
		r.Batch.Duplicate,
		r.Batch.Failed,
		len(r.Dispatched),
	)
}
