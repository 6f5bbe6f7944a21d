package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/metrics"
	"NewsBrief/internal/ports"
)

// TodayRange is the civil day of now in loc as [midnight, next midnight).
func TodayRange(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Indexer embeds a user's eligible articles and bulk inserts them.
type Indexer struct {
	prefs    ports.PreferenceRepository
	articles ports.ArticleRepository
	embedder ports.Embedder
	index    ports.VectorIndex
	loc      *time.Location
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewIndexer constructs the per-user indexing job.
func NewIndexer(prefs ports.PreferenceRepository, articles ports.ArticleRepository, embedder ports.Embedder, index ports.VectorIndex, loc *time.Location, m *metrics.Metrics, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Indexer{
		prefs:    prefs,
		articles: articles,
		embedder: embedder,
		index:    index,
		loc:      loc,
		now:      time.Now,
		metrics:  m,
		logger:   logger.With("component", "indexer"),
	}
}

// IndexForUser indexes today's articles from the user's preferred
// publishers and categories. No eligible article is not an error.
func (i *Indexer) IndexForUser(ctx context.Context, userID string) (domain.BulkResult, error) {
	publishers, err := i.prefs.PreferredPublisherIDs(ctx, userID)
	if err != nil {
		return domain.BulkResult{}, err
	}
	categories, err := i.prefs.PreferredCategoryIDs(ctx, userID)
	if err != nil {
		return domain.BulkResult{}, err
	}

	from, to := TodayRange(i.now(), i.loc)
	articles, err := i.articles.ListPublishedBetween(ctx, publishers, categories, from, to)
	if err != nil {
		return domain.BulkResult{}, fmt.Errorf("list eligible articles: %w", err)
	}
	if len(articles) == 0 {
		i.logger.Info("nothing to index", "user_id", userID)
		return domain.BulkResult{}, nil
	}

	texts := make([]string, len(articles))
	for n, a := range articles {
		texts[n] = a.Title + " " + a.Summary
	}
	vectors, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return domain.BulkResult{}, fmt.Errorf("embed articles: %w", err)
	}
	if len(vectors) != len(articles) {
		return domain.BulkResult{}, fmt.Errorf("embed articles: got %d vectors for %d articles", len(vectors), len(articles))
	}

	docs := make([]domain.IndexDocument, len(articles))
	for n, a := range articles {
		docs[n] = domain.IndexDocument{ArticleID: a.ID, Title: a.Title, Body: a.Summary, Embedding: vectors[n]}
	}

	if err := i.index.EnsureIndex(ctx); err != nil {
		return domain.BulkResult{}, fmt.Errorf("ensure index: %w", err)
	}
	result, err := i.index.BulkInsert(ctx, docs)
	if err != nil {
		return result, fmt.Errorf("bulk insert: %w", err)
	}

	i.metrics.Indexed(result.Indexed, len(result.Failed))
	if result.HasErrors() {
		i.logger.Warn("bulk insert partially failed", "user_id", userID, "indexed", result.Indexed, "failed", len(result.Failed))
	} else {
		i.logger.Info("articles indexed", "user_id", userID, "indexed", result.Indexed)
	}
	return result, nil
}
