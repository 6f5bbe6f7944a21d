package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"NewsBrief/internal/ports"
)

const (
	prefKeywords   = "keywords"
	prefPublishers = "publishers"
	prefCategories = "categories"
	prefVoiceType  = "voice_type"
)

// CachedPreferences reads user preferences through the cache store.
type CachedPreferences struct {
	repo   ports.PreferenceRepository
	cache  ports.CacheStore
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.PreferenceRepository = (*CachedPreferences)(nil)

// NewCachedPreferences wraps repo with a read-through cache.
func NewCachedPreferences(repo ports.PreferenceRepository, cache ports.CacheStore, ttl time.Duration, logger *slog.Logger) *CachedPreferences {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedPreferences{repo: repo, cache: cache, ttl: ttl, logger: logger.With("component", "preference_cache")}
}

// PreferenceKey is the cache key of one preference list.
func PreferenceKey(userID, kind string) string {
	return fmt.Sprintf("user:%s:preferences:%s", userID, kind)
}

func (p *CachedPreferences) UserKeywords(ctx context.Context, userID string) ([]string, error) {
	return p.load(ctx, userID, prefKeywords, p.repo.UserKeywords)
}

func (p *CachedPreferences) PreferredPublisherIDs(ctx context.Context, userID string) ([]string, error) {
	return p.load(ctx, userID, prefPublishers, p.repo.PreferredPublisherIDs)
}

func (p *CachedPreferences) PreferredCategoryIDs(ctx context.Context, userID string) ([]string, error) {
	return p.load(ctx, userID, prefCategories, p.repo.PreferredCategoryIDs)
}

func (p *CachedPreferences) MarkViewed(ctx context.Context, userID, articleID string, at time.Time) error {
	return p.repo.MarkViewed(ctx, userID, articleID, at)
}

// Invalidate drops every cached preference of a user.
func (p *CachedPreferences) Invalidate(ctx context.Context, userID string) error {
	return p.cache.Delete(ctx,
		PreferenceKey(userID, prefKeywords),
		PreferenceKey(userID, prefPublishers),
		PreferenceKey(userID, prefCategories),
		PreferenceKey(userID, prefVoiceType),
	)
}

func (p *CachedPreferences) load(ctx context.Context, userID, kind string, fetch func(context.Context, string) ([]string, error)) ([]string, error) {
	key := PreferenceKey(userID, kind)
	if raw, ok, err := p.cache.Get(ctx, key); err != nil {
		p.logger.Warn("cache read failed", "key", key, "error", err)
	} else if ok {
		var values []string
		if err := json.Unmarshal(raw, &values); err == nil {
			return values, nil
		}
	}

	values, err := fetch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load %s of %s: %w", kind, userID, err)
	}
	if values == nil {
		values = []string{}
	}

	if raw, err := json.Marshal(values); err == nil {
		if err := p.cache.Set(ctx, key, raw, p.ttl); err != nil {
			p.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return values, nil
}
