package usecase

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/logging"
	"NewsBrief/internal/scanner"
)

func newTestCrawler(feeds fakeFeeds, known *memRepo) *Crawler {
	deps := CrawlerDeps{
		Feeds:    feeds,
		Registry: scanner.NewRegistry(scriptedExtractor{name: "SBS뉴스"}),
		Logger:   logging.Discard(),
	}
	if known != nil {
		deps.Known = known
	}
	c := NewCrawler(deps, time.Second)
	c.wait = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return c
}

func TestCrawlIsolatesFailures(t *testing.T) {
	t.Parallel()

	feeds := fakeFeeds{
		"feed://politics": {"a1", "bad-1", "a2", "panic-1", "a3"},
	}
	c := newTestCrawler(feeds, nil)

	result := c.Crawl(context.Background(), []scanner.Target{
		{Publisher: "SBS뉴스", Category: "정치", FeedURL: "feed://politics"},
	}, 5)

	require.Equal(t, 3, result.Stats.Processed)
	require.Equal(t, 2, result.Stats.Failed)
	require.Len(t, result.Articles, 3)
	require.InDelta(t, 60.0, result.Stats.SuccessRate(), 0.001)

	urls := make([]string, 0, len(result.Articles))
	for _, a := range result.Articles {
		require.Equal(t, "정치", a.Category)
		require.Equal(t, "SBS뉴스", a.Publisher)
		urls = append(urls, a.URL)
	}
	sort.Strings(urls)
	require.Equal(t, []string{"a1", "a2", "a3"}, urls)
}

func TestCrawlSkipsUnknownPublisherAndCountsFeedFailure(t *testing.T) {
	t.Parallel()

	c := newTestCrawler(fakeFeeds{"feed://ok": {"x"}}, nil)

	result := c.Crawl(context.Background(), []scanner.Target{
		{Publisher: "nobody", Category: "정치", FeedURL: "feed://ok"},
		{Publisher: "SBS뉴스", Category: "경제", FeedURL: "feed://missing"},
		{Publisher: "SBS뉴스", Category: "사회", FeedURL: "feed://ok"},
	}, 0)

	require.Equal(t, 1, result.Stats.Processed)
	require.Equal(t, 1, result.Stats.Failed)
	require.Len(t, result.Articles, 1)
}

func TestCrawlSkipsStoredURLs(t *testing.T) {
	t.Parallel()

	known := newMemRepo()
	known.put(domain.Article{URL: "old", Title: "old"})
	c := newTestCrawler(fakeFeeds{"feed://f": {"old", "new"}}, known)

	result := c.Crawl(context.Background(), []scanner.Target{
		{Publisher: "SBS뉴스", Category: "정치", FeedURL: "feed://f"},
	}, 2)

	require.Equal(t, 1, result.Stats.Processed)
	require.Equal(t, 1, result.Stats.Skipped)
	require.Zero(t, result.Stats.Failed)
	require.Equal(t, "new", result.Articles[0].URL)
}

func TestCrawlSkipsStoredOverlongURL(t *testing.T) {
	t.Parallel()

	long := "https://news.example.com/" + strings.Repeat("x", 300)
	known := newMemRepo()
	known.put(domain.Article{URL: domain.Truncate(long, domain.MaxURLLen), Title: "stored"})
	c := newTestCrawler(fakeFeeds{"feed://f": {long}}, known)

	result := c.Crawl(context.Background(), []scanner.Target{
		{Publisher: "SBS뉴스", Category: "정치", FeedURL: "feed://f"},
	}, 1)

	require.Equal(t, 1, result.Stats.Skipped)
	require.Zero(t, result.Stats.Processed)
	require.Empty(t, result.Articles)
}

func TestPermitsCappedAtCeiling(t *testing.T) {
	t.Parallel()

	require.EqualValues(t, 10, permits(0))
	require.EqualValues(t, 10, permits(50))
	require.EqualValues(t, 3, permits(3))
}
