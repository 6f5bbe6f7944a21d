package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsBrief/internal/domain"
)

var kst = time.FixedZone("KST", 9*60*60)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	db, err := Open(ctx, SQLite, "file::memory:?_time_format=sqlite", 1, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewStore(db, SQLite, kst)
	store.now = func() time.Time { return time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC) }
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrate must be repeatable")
	return store
}

func seedArticle(t *testing.T, s *Store, mutate func(*domain.Article)) domain.Article {
	t.Helper()

	ctx := context.Background()
	publisher, err := s.ResolvePublisher(ctx, "SBS뉴스")
	require.NoError(t, err)
	category, err := s.ResolveCategory(ctx, "정치")
	require.NoError(t, err)

	id := uuid.NewString()
	article := domain.Article{
		ID:                id,
		Title:             "제목 " + id[:8],
		URL:               "https://news.example.com/" + id,
		PublishedAt:       time.Date(2026, 10, 18, 9, 30, 0, 0, kst),
		Summary:           "요약",
		MaleAudioURL:      "https://cdn.example.com/male.mp3",
		FemaleAudioURL:    "https://cdn.example.com/female.mp3",
		OriginalImageURL:  "https://img.example.com/a.jpg",
		ThumbnailImageURL: "https://cdn.example.com/thumb.jpg",
		Author:            "홍길동",
		CategoryName:      category.Name,
		CategoryID:        category.ID,
		PublisherID:       publisher.ID,
	}
	if mutate != nil {
		mutate(&article)
	}
	require.NoError(t, s.InsertArticle(ctx, article))
	return article
}

func TestResolveDimensionIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.ResolvePublisher(ctx, "한국경제")
	require.NoError(t, err)
	second, err := s.ResolvePublisher(ctx, "한국경제")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	found, err := s.PublisherByName(ctx, "한국경제")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = s.PublisherByName(ctx, "없는언론사")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	category, err := s.ResolveCategory(ctx, "경제")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, category.ID)
}

func TestInsertAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seeded := seedArticle(t, s, nil)

	got, err := s.FindByURL(ctx, seeded.URL)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)
	assert.Equal(t, seeded.Title, got.Title)
	assert.True(t, seeded.PublishedAt.Equal(got.PublishedAt))
	assert.Equal(t, kst, got.PublishedAt.Location())
	assert.False(t, got.Deleted)

	byID, err := s.GetArticle(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.URL, byID.URL)

	_, err = s.FindByURL(ctx, "https://news.example.com/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLiveURLIsUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seeded := seedArticle(t, s, nil)

	duplicate := seeded
	duplicate.ID = uuid.NewString()
	require.Error(t, s.InsertArticle(ctx, duplicate))

	deleted, err := s.SoftDelete(ctx, seeded.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	require.NoError(t, s.InsertArticle(ctx, duplicate), "url of a deleted article can be reused")
}

func TestSoftDeleteHidesArticle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seeded := seedArticle(t, s, nil)

	deleted, err := s.SoftDelete(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.GetArticle(ctx, seeded.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	deleted, err = s.SoftDelete(ctx, seeded.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	found, err := s.GetArticles(ctx, []string{seeded.ID})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUpdateAudioAndThumbnail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seeded := seedArticle(t, s, func(a *domain.Article) {
		a.MaleAudioURL = ""
		a.FemaleAudioURL = ""
		a.ThumbnailImageURL = ""
	})

	require.NoError(t, s.UpdateAudio(ctx, seeded.ID, "m.mp3", "f.mp3"))
	require.NoError(t, s.UpdateThumbnail(ctx, seeded.ID, "thumb.jpg"))

	got, err := s.GetArticle(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, got.HasAudio())
	assert.Equal(t, "m.mp3", got.MaleAudioURL)
	assert.Equal(t, "f.mp3", got.FemaleAudioURL)
	assert.Equal(t, "thumb.jpg", got.ThumbnailImageURL)

	err = s.UpdateThumbnail(ctx, uuid.NewString(), "x.jpg")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecentCompleteSkipsIncomplete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := seedArticle(t, s, func(a *domain.Article) {
		a.PublishedAt = time.Date(2026, 10, 17, 8, 0, 0, 0, kst)
	})
	newer := seedArticle(t, s, nil)
	seedArticle(t, s, func(a *domain.Article) { a.FemaleAudioURL = "" })
	seedArticle(t, s, func(a *domain.Article) { a.Author = "" })

	recent, err := s.RecentComplete(ctx, 20)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, newer.ID, recent[0].ID)
	assert.Equal(t, older.ID, recent[1].ID)

	limited, err := s.RecentComplete(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListPublishedBetween(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inside := seedArticle(t, s, nil)
	seedArticle(t, s, func(a *domain.Article) {
		a.PublishedAt = time.Date(2026, 10, 17, 23, 59, 59, 0, kst)
	})
	seedArticle(t, s, func(a *domain.Article) {
		a.PublishedAt = time.Date(2026, 10, 19, 0, 0, 0, 0, kst)
	})

	from := time.Date(2026, 10, 18, 0, 0, 0, 0, kst)
	got, err := s.ListPublishedBetween(ctx,
		[]string{inside.PublisherID}, []string{inside.CategoryID},
		from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inside.ID, got[0].ID)

	none, err := s.ListPublishedBetween(ctx, nil, []string{inside.CategoryID}, from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seeded := seedArticle(t, s, nil)

	got, err := s.ListByCategory(ctx, "정치", []string{seeded.PublisherID})
	require.NoError(t, err)
	require.Len(t, got, 1)

	other, err := s.ListByCategory(ctx, "경제", []string{seeded.PublisherID})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPreferencesAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seeded := seedArticle(t, s, nil)

	require.NoError(t, s.AddKeyword(ctx, "u1", "반도체"))
	require.NoError(t, s.AddKeyword(ctx, "u1", "  "))
	require.NoError(t, s.AddKeyword(ctx, "u1", "반도체"))
	require.NoError(t, s.AddPreferredPublisher(ctx, "u1", seeded.PublisherID))
	require.NoError(t, s.AddPreferredCategory(ctx, "u1", seeded.CategoryID))

	keywords, err := s.UserKeywords(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"반도체"}, keywords)

	publishers, err := s.PreferredPublisherIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{seeded.PublisherID}, publishers)

	categories, err := s.PreferredCategoryIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{seeded.CategoryID}, categories)

	empty, err := s.UserKeywords(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := time.Date(2026, 10, 18, 10, 0, 0, 0, kst)
	require.NoError(t, s.MarkViewed(ctx, "u1", seeded.ID, first))
	require.NoError(t, s.MarkViewed(ctx, "u1", seeded.ID, first.Add(time.Hour)))

	viewed, ok, err := s.ViewedAt(ctx, "u1", seeded.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, viewed.Equal(first.Add(time.Hour)))

	var rows int
	require.NoError(t, s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM article_histories").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestVoiceTypeDefaultsAndUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	voice, err := s.VoiceType(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.VoiceTypeMale, voice)

	require.NoError(t, s.SetVoiceType(ctx, "u1", domain.VoiceTypeFemale))
	voice, err = s.VoiceType(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.VoiceTypeFemale, voice)

	require.NoError(t, s.SetVoiceType(ctx, "u1", domain.VoiceTypeMale))
	voice, err = s.VoiceType(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.VoiceTypeMale, voice)

	err = s.SetVoiceType(ctx, "u1", "robot")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListHistoryNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := seedArticle(t, s, nil)
	newer := seedArticle(t, s, nil)
	bare := seedArticle(t, s, func(a *domain.Article) { a.ThumbnailImageURL = "" })
	gone := seedArticle(t, s, nil)

	at := time.Date(2026, 10, 18, 10, 0, 0, 0, kst)
	require.NoError(t, s.MarkViewed(ctx, "u1", older.ID, at))
	require.NoError(t, s.MarkViewed(ctx, "u1", newer.ID, at.Add(time.Hour)))
	require.NoError(t, s.MarkViewed(ctx, "u1", bare.ID, at.Add(2*time.Hour)))
	require.NoError(t, s.MarkViewed(ctx, "u1", gone.ID, at.Add(3*time.Hour)))
	require.NoError(t, s.MarkViewed(ctx, "u2", older.ID, at))
	_, err := s.SoftDelete(ctx, gone.ID)
	require.NoError(t, err)

	entries, err := s.ListHistory(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newer.ID, entries[0].ArticleID)
	assert.Equal(t, older.ID, entries[1].ArticleID)
	assert.Equal(t, "u1", entries[0].UserID)
	assert.Equal(t, newer.Title, entries[0].Title)
	assert.Equal(t, newer.ThumbnailImageURL, entries[0].ThumbnailImageURL)
	assert.Equal(t, "정치", entries[0].Category)
	assert.True(t, entries[0].ViewedAt.Equal(at.Add(time.Hour)))

	limited, err := s.ListHistory(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, newer.ID, limited[0].ArticleID)
}

func TestPublisherByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	publisher, err := s.ResolvePublisher(ctx, "연합뉴스")
	require.NoError(t, err)

	found, err := s.PublisherByID(ctx, publisher.ID)
	require.NoError(t, err)
	assert.Equal(t, "연합뉴스", found.Name)

	_, err = s.PublisherByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
