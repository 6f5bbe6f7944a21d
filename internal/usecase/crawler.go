package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"NewsBrief/internal/config"
	"NewsBrief/internal/domain"
	"NewsBrief/internal/metrics"
	"NewsBrief/internal/ports"
	"NewsBrief/internal/scanner"
)

// CrawlStats summarizes a crawl run.
type CrawlStats struct {
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Elapsed   time.Duration `json:"elapsed"`
}

// SuccessRate is processed over processed+failed, in percent.
func (s CrawlStats) SuccessRate() float64 {
	total := s.Processed + s.Failed
	if total == 0 {
		return 0
	}
	return float64(s.Processed) / float64(total) * 100
}

// CrawlResult is every successfully extracted article plus run statistics.
type CrawlResult struct {
	Articles []domain.RawArticle
	Stats    CrawlStats
}

// CrawlerDeps wires the crawler's collaborators. Known is optional; when set,
// URLs already stored are skipped before any page is fetched.
type CrawlerDeps struct {
	Feeds    ports.FeedFetcher
	Registry *scanner.Registry
	Known    ports.ArticleRepository
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Crawler fans feeds out into page extractions over a fixed permit pool.
type Crawler struct {
	feeds    ports.FeedFetcher
	registry *scanner.Registry
	known    ports.ArticleRepository
	metrics  *metrics.Metrics
	logger   *slog.Logger
	delay    time.Duration
	wait     func(ctx context.Context, d time.Duration) error
}

// NewCrawler constructs a crawler that waits politenessDelay between article fetches.
func NewCrawler(deps CrawlerDeps, politenessDelay time.Duration) *Crawler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		feeds:    deps.Feeds,
		registry: deps.Registry,
		known:    deps.Known,
		metrics:  deps.Metrics,
		logger:   logger.With("component", "crawler"),
		delay:    politenessDelay,
		wait:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// permits caps the requested concurrency at the global ceiling.
func permits(requested int) int64 {
	if requested <= 0 || requested > config.MaxCrawlConcurrency {
		return config.MaxCrawlConcurrency
	}
	return int64(requested)
}

type crawlRun struct {
	mu       sync.Mutex
	articles []domain.RawArticle
	stats    CrawlStats
}

func (r *crawlRun) success(a domain.RawArticle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles = append(r.articles, a)
	r.stats.Processed++
}

func (r *crawlRun) failure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Failed++
}

func (r *crawlRun) skip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Skipped++
}

// Crawl extracts every article reachable from targets. Per-URL and
// per-category failures are counted, never propagated.
func (c *Crawler) Crawl(ctx context.Context, targets []scanner.Target, concurrency int) CrawlResult {
	started := time.Now()
	n := permits(concurrency)
	sem := semaphore.NewWeighted(n)
	run := &crawlRun{}

	c.logger.Info("crawl started", "targets", len(targets), "permits", n)

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(target scanner.Target) {
			defer wg.Done()
			c.crawlCategory(ctx, target, sem, run)
		}(target)
	}
	wg.Wait()

	run.stats.Elapsed = time.Since(started)
	c.metrics.CrawlFinished(run.stats.Elapsed)
	c.logger.Info("crawl finished",
		"processed", run.stats.Processed,
		"failed", run.stats.Failed,
		"skipped", run.stats.Skipped,
		"success_rate", fmt.Sprintf("%.1f", run.stats.SuccessRate()),
		"elapsed", run.stats.Elapsed.String(),
	)

	return CrawlResult{Articles: run.articles, Stats: run.stats}
}

func (c *Crawler) crawlCategory(ctx context.Context, target scanner.Target, sem *semaphore.Weighted, run *crawlRun) {
	log := c.logger.With("publisher", target.Publisher, "category", target.Category)
	defer func() {
		if r := recover(); r != nil {
			log.Error("category crawl panicked", "panic", r)
			run.failure()
		}
	}()

	extractor, err := c.registry.Resolve(target.Publisher)
	if err != nil {
		log.Warn("skipping target", "error", err)
		return
	}

	urls, err := c.feeds.FetchURLs(ctx, target.FeedURL)
	if err != nil {
		log.Warn("feed fetch failed", "feed", target.FeedURL, "error", err)
		c.metrics.CrawlItem("failed")
		run.failure()
		return
	}
	log.Debug("feed resolved", "urls", len(urls))

	var wg sync.WaitGroup
	for _, url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				c.metrics.CrawlItem("failed")
				run.failure()
				return
			}
			defer sem.Release(1)

			article, err := c.crawlURL(ctx, extractor, target, url)
			switch {
			case errors.Is(err, errAlreadyStored):
				c.metrics.CrawlItem("skipped")
				run.skip()
			case err != nil:
				log.Warn("article extraction failed", "url", url, "error", err)
				c.metrics.CrawlItem("failed")
				run.failure()
			default:
				c.metrics.CrawlItem("processed")
				run.success(article)
			}
		}(url)
	}
	wg.Wait()
}

var errAlreadyStored = errors.New("already stored")

func (c *Crawler) crawlURL(ctx context.Context, extractor scanner.Extractor, target scanner.Target, url string) (article domain.RawArticle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()

	if err := c.wait(ctx, c.delay); err != nil {
		return domain.RawArticle{}, err
	}

	if c.known != nil {
		if _, err := c.known.FindByURL(ctx, domain.Truncate(url, domain.MaxURLLen)); err == nil {
			return domain.RawArticle{}, errAlreadyStored
		}
	}

	article, err = extractor.ExtractArticle(ctx, url)
	if err != nil {
		return domain.RawArticle{}, err
	}
	if strings.TrimSpace(article.Title) == "" || strings.TrimSpace(article.Body) == "" {
		return domain.RawArticle{}, fmt.Errorf("incomplete article %s", url)
	}

	article.URL = url
	article.Category = target.Category
	article.Publisher = target.Publisher
	return article, nil
}
