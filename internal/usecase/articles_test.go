package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/infrastructure/cache"
	"NewsBrief/internal/logging"
)

func TestRecentArticlesCached(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	store := cache.NewMemory()
	q := NewArticleQueries(repo, newMemPrefs(), store, time.Minute, kst, logging.Discard())

	_, err := q.Recent(context.Background(), 0)
	require.True(t, errors.Is(err, domain.ErrNoResults))

	a := repo.put(domain.Article{Title: "a", URL: "a", PublishedAt: time.Date(2026, 10, 18, 1, 0, 0, 0, kst)})
	got, err := q.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, ok, _ := store.Get(context.Background(), RecentKey)
	require.True(t, ok)

	repo.put(domain.Article{Title: "b", URL: "b", PublishedAt: time.Date(2026, 10, 18, 2, 0, 0, 0, kst)})
	got, err = q.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1, "served from cache")

	require.NoError(t, q.Delete(context.Background(), a.ID))
	got, err = q.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "b", got[0].Title)
}

func TestDeleteDropsEverySmallerFeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemRepo()
	q := NewArticleQueries(repo, newMemPrefs(), cache.NewMemory(), time.Minute, kst, logging.Discard())

	a := repo.put(domain.Article{Title: "a", URL: "a", PublishedAt: time.Date(2026, 10, 18, 1, 0, 0, 0, kst)})
	got, err := q.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, q.Delete(ctx, a.ID))
	_, err = q.Recent(ctx, 5)
	require.True(t, errors.Is(err, domain.ErrNoResults))
}

func TestRecentSlicesCachedFeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemRepo()
	q := NewArticleQueries(repo, newMemPrefs(), cache.NewMemory(), time.Minute, kst, logging.Discard())
	for i := range 3 {
		repo.put(domain.Article{Title: "t", URL: string(rune('a' + i)), PublishedAt: time.Date(2026, 10, 18, i, 0, 0, 0, kst)})
	}

	got, err := q.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = q.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)

	got, err = q.Recent(ctx, 500)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestDeleteUnknownArticle(t *testing.T) {
	t.Parallel()

	q := NewArticleQueries(newMemRepo(), newMemPrefs(), cache.NewMemory(), 0, kst, logging.Discard())
	err := q.Delete(context.Background(), "missing")
	require.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestArticlesByCategoryUsesPreferredPublishers(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	prefs := newMemPrefs()
	repo.put(domain.Article{Title: "mine", URL: "1", CategoryName: "경제", PublisherID: "p1"})
	repo.put(domain.Article{Title: "other", URL: "2", CategoryName: "경제", PublisherID: "p2"})
	prefs.publishers["u1"] = []string{"p1"}
	q := NewArticleQueries(repo, prefs, cache.NewMemory(), 0, kst, logging.Discard())

	got, err := q.ByCategory(context.Background(), "u1", "경제")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "mine", got[0].Title)

	_, err = q.ByCategory(context.Background(), "u2", "경제")
	require.True(t, errors.Is(err, domain.ErrNoResults))
}

func TestMarkViewedUsesLocalTime(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	prefs := newMemPrefs()
	a := repo.put(domain.Article{Title: "a", URL: "a"})
	q := NewArticleQueries(repo, prefs, cache.NewMemory(), 0, kst, logging.Discard())
	q.now = func() time.Time { return time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC) }

	require.NoError(t, q.MarkViewed(context.Background(), "u1", a.ID))
	at := prefs.viewed["u1/"+a.ID]
	require.Equal(t, 12, at.Hour())
	require.Equal(t, kst, at.Location())

	err := q.MarkViewed(context.Background(), "u1", "missing")
	require.True(t, errors.Is(err, domain.ErrNotFound))

	err = q.MarkViewed(context.Background(), "", a.ID)
	require.True(t, errors.Is(err, domain.ErrValidation))
}

func TestTodayRangeIsLocalCalendarDay(t *testing.T) {
	t.Parallel()

	from, to := TodayRange(time.Date(2026, 10, 17, 16, 30, 0, 0, time.UTC), kst)
	require.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, kst), from)
	require.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, kst), to)
}

func TestIndexerSkipsWhenNothingEligible(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	prefs := newMemPrefs()
	prefs.publishers["u1"] = []string{"p1"}
	prefs.categories["u1"] = []string{"c1"}
	repo.put(domain.Article{Title: "yesterday", URL: "1", PublisherID: "p1", CategoryID: "c1",
		PublishedAt: time.Date(2026, 10, 17, 23, 59, 0, 0, kst)})
	embedder := &fakeEmbedder{}

	idx := NewIndexer(prefs, repo, embedder, &fixedIndex{}, kst, nil, logging.Discard())
	idx.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, kst) }

	result, err := idx.IndexForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Zero(t, result.Indexed)
	require.Zero(t, embedder.calls)
}
