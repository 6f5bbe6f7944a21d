package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

const (
	// DefaultRecentLimit is the size of the cached recent article feed.
	DefaultRecentLimit = 20
	// MaxRecentLimit caps feeds larger than the cached one.
	MaxRecentLimit = 100
	// RecentKey holds the cached feed. Smaller feeds are sliced from it.
	RecentKey = "recent_articles"
)

// ArticleQueries serves the read side: feeds, details, deletes, history.
type ArticleQueries struct {
	articles  ports.ArticleRepository
	prefs     ports.PreferenceRepository
	cache     ports.CacheStore
	recentTTL time.Duration
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// NewArticleQueries constructs the read side over the repositories and cache.
func NewArticleQueries(articles ports.ArticleRepository, prefs ports.PreferenceRepository, cache ports.CacheStore, recentTTL time.Duration, loc *time.Location, logger *slog.Logger) *ArticleQueries {
	if logger == nil {
		logger = slog.Default()
	}
	if recentTTL <= 0 {
		recentTTL = time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ArticleQueries{
		articles:  articles,
		prefs:     prefs,
		cache:     cache,
		recentTTL: recentTTL,
		loc:       loc,
		now:       time.Now,
		logger:    logger.With("component", "article_queries"),
	}
}

// Recent returns the newest fully enriched articles. Feeds up to
// DefaultRecentLimit share one cache entry so a delete drops all of them.
func (q *ArticleQueries) Recent(ctx context.Context, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > DefaultRecentLimit {
		return q.recentUncached(ctx, min(limit, MaxRecentLimit))
	}

	if raw, ok, err := q.cache.Get(ctx, RecentKey); err != nil {
		q.logger.Warn("cache read failed", "key", RecentKey, "error", err)
	} else if ok {
		var cached []domain.Article
		if err := json.Unmarshal(raw, &cached); err == nil && len(cached) > 0 {
			return cached[:min(limit, len(cached))], nil
		}
	}

	articles, err := q.recentUncached(ctx, DefaultRecentLimit)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(articles); err == nil {
		if err := q.cache.Set(ctx, RecentKey, raw, q.recentTTL); err != nil {
			q.logger.Warn("cache write failed", "key", RecentKey, "error", err)
		}
	}
	return articles[:min(limit, len(articles))], nil
}

func (q *ArticleQueries) recentUncached(ctx context.Context, limit int) ([]domain.Article, error) {
	articles, err := q.articles.RecentComplete(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent articles: %w", err)
	}
	if len(articles) == 0 {
		return nil, domain.ErrNoResults
	}
	return articles, nil
}

// ByCategory lists a category restricted to the user's preferred publishers.
func (q *ArticleQueries) ByCategory(ctx context.Context, userID, category string) ([]domain.Article, error) {
	publishers, err := q.prefs.PreferredPublisherIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	articles, err := q.articles.ListByCategory(ctx, category, publishers)
	if err != nil {
		return nil, fmt.Errorf("articles by category: %w", err)
	}
	if len(articles) == 0 {
		return nil, domain.ErrNoResults
	}
	return articles, nil
}

// Get returns a live article.
func (q *ArticleQueries) Get(ctx context.Context, id string) (domain.Article, error) {
	return q.articles.GetArticle(ctx, id)
}

// Delete soft-deletes an article and drops the recent feed cache.
func (q *ArticleQueries) Delete(ctx context.Context, id string) error {
	ok, err := q.articles.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	if err := q.cache.Delete(ctx, RecentKey); err != nil {
		q.logger.Warn("cache invalidation failed", "error", err)
	}
	q.logger.Info("article deleted", "article_id", id)
	return nil
}

// MarkViewed records the article in the user's history at the local time.
func (q *ArticleQueries) MarkViewed(ctx context.Context, userID, articleID string) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user", domain.ErrValidation)
	}
	if _, err := q.articles.GetArticle(ctx, articleID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("mark viewed: %w", err)
	}
	return q.prefs.MarkViewed(ctx, userID, articleID, q.now().In(q.loc))
}
