package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsBrief/internal/domain"
)

var articleColumns = []string{
	"id", "title", "url", "published_at", "summary_text",
	"male_audio_url", "female_audio_url", "original_image_url", "thumbnail_image_url",
	"author", "category_name", "category_id", "press_id", "is_deleted",
	"created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanArticle(row rowScanner) (domain.Article, error) {
	var (
		a                           domain.Article
		published, created, updated timestamp
	)
	err := row.Scan(
		&a.ID, &a.Title, &a.URL, &published, &a.Summary,
		&a.MaleAudioURL, &a.FemaleAudioURL, &a.OriginalImageURL, &a.ThumbnailImageURL,
		&a.Author, &a.CategoryName, &a.CategoryID, &a.PublisherID, &a.Deleted,
		&created, &updated,
	)
	if err != nil {
		return domain.Article{}, err
	}
	a.PublishedAt = published.In(s.loc)
	a.CreatedAt = created.In(s.loc)
	a.UpdatedAt = updated.In(s.loc)
	return a, nil
}

func (s *Store) liveArticles() sq.SelectBuilder {
	return s.sb.Select(articleColumns...).
		From("news_articles").
		Where(sq.Eq{"is_deleted": false})
}

func (s *Store) getOne(ctx context.Context, builder sq.SelectBuilder) (domain.Article, error) {
	query, args, err := builder.Limit(1).ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}
	article, err := s.scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("select article: %w", err)
	}
	return article, nil
}

func (s *Store) list(ctx context.Context, builder sq.SelectBuilder) ([]domain.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	var articles []domain.Article
	for rows.Next() {
		article, err := s.scanArticle(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return articles, nil
}

// FindByURL returns the live article stored under url.
func (s *Store) FindByURL(ctx context.Context, url string) (domain.Article, error) {
	return s.getOne(ctx, s.liveArticles().Where(sq.Eq{"url": url}))
}

// GetArticle returns a live article by id.
func (s *Store) GetArticle(ctx context.Context, id string) (domain.Article, error) {
	return s.getOne(ctx, s.liveArticles().Where(sq.Eq{"id": id}))
}

// GetArticles returns the live articles among ids keyed by id. Unknown or
// deleted ids are absent from the map.
func (s *Store) GetArticles(ctx context.Context, ids []string) (map[string]domain.Article, error) {
	result := make(map[string]domain.Article, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	articles, err := s.list(ctx, s.liveArticles().Where(sq.Eq{"id": ids}))
	if err != nil {
		return nil, err
	}
	for _, a := range articles {
		result[a.ID] = a
	}
	return result, nil
}

// InsertArticle stores a new article row.
func (s *Store) InsertArticle(ctx context.Context, a domain.Article) error {
	now := dbTime(s.now())
	query, args, err := s.sb.Insert("news_articles").
		Columns(articleColumns...).
		Values(
			a.ID, a.Title, a.URL, dbTime(a.PublishedAt), a.Summary,
			a.MaleAudioURL, a.FemaleAudioURL, a.OriginalImageURL, a.ThumbnailImageURL,
			a.Author, a.CategoryName, a.CategoryID, a.PublisherID, false,
			now, now,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// UpdateAudio sets both voice URLs in a single statement.
func (s *Store) UpdateAudio(ctx context.Context, id, maleURL, femaleURL string) error {
	return s.updateLive(ctx, id, sq.Eq{"male_audio_url": maleURL, "female_audio_url": femaleURL})
}

// UpdateThumbnail sets the thumbnail URL.
func (s *Store) UpdateThumbnail(ctx context.Context, id, thumbnailURL string) error {
	return s.updateLive(ctx, id, sq.Eq{"thumbnail_image_url": thumbnailURL})
}

// SoftDelete flags a live article as deleted; false when nothing matched.
func (s *Store) SoftDelete(ctx context.Context, id string) (bool, error) {
	err := s.updateLive(ctx, id, sq.Eq{"is_deleted": true})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) updateLive(ctx context.Context, id string, fields sq.Eq) error {
	builder := s.sb.Update("news_articles").
		Set("updated_at", dbTime(s.now())).
		Where(sq.Eq{"id": id, "is_deleted": false})
	for column, value := range fields {
		builder = builder.Set(column, value)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update article %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// RecentComplete returns the newest live articles whose display fields are
// all filled in, including both audio renditions and the thumbnail.
func (s *Store) RecentComplete(ctx context.Context, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		limit = 20
	}
	required := []string{
		"title", "url", "summary_text", "male_audio_url", "female_audio_url",
		"original_image_url", "thumbnail_image_url", "author", "category_name",
	}
	builder := s.liveArticles()
	for _, column := range required {
		builder = builder.Where(sq.NotEq{column: ""})
	}
	return s.list(ctx, builder.OrderBy("published_at DESC").Limit(uint64(limit)))
}

// ListByCategory returns live articles of a category published by any of
// publisherIDs, newest first.
func (s *Store) ListByCategory(ctx context.Context, category string, publisherIDs []string) ([]domain.Article, error) {
	if len(publisherIDs) == 0 {
		return nil, nil
	}
	return s.list(ctx, s.liveArticles().
		Where(sq.Eq{"category_name": category, "press_id": publisherIDs}).
		OrderBy("published_at DESC"))
}

// ListPublishedBetween returns live articles of the given publishers and
// categories published in [from, to), newest first.
func (s *Store) ListPublishedBetween(ctx context.Context, publisherIDs, categoryIDs []string, from, to time.Time) ([]domain.Article, error) {
	if len(publisherIDs) == 0 || len(categoryIDs) == 0 {
		return nil, nil
	}
	return s.list(ctx, s.liveArticles().
		Where(sq.Eq{"press_id": publisherIDs, "category_id": categoryIDs}).
		Where(sq.GtOrEq{"published_at": dbTime(from)}).
		Where(sq.Lt{"published_at": dbTime(to)}).
		OrderBy("published_at DESC"))
}
