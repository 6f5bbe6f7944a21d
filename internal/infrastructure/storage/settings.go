package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"NewsBrief/internal/domain"
)

// VoiceType returns the voice a user chose, or the default voice when the
// user has no settings row yet.
func (s *Store) VoiceType(ctx context.Context, userID string) (string, error) {
	query, args, err := s.sb.Select("voice_type").
		From("user_settings").
		Where(sq.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select: %w", err)
	}

	var voice string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&voice)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultVoiceType, nil
	}
	if err != nil {
		return "", fmt.Errorf("select voice type: %w", err)
	}
	return voice, nil
}

// SetVoiceType stores the voice a user chose.
func (s *Store) SetVoiceType(ctx context.Context, userID, voiceType string) error {
	if !domain.ValidVoiceType(voiceType) {
		return fmt.Errorf("%w: voice type %q", domain.ErrValidation, voiceType)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.sb.Select("1").
			From("user_settings").
			Where(sq.Eq{"user_id": userID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build select: %w", err)
		}

		var one int
		err = tx.QueryRowContext(ctx, query, args...).Scan(&one)
		switch {
		case err == nil:
			query, args, err = s.sb.Update("user_settings").
				Set("voice_type", voiceType).
				Set("updated_at", dbTime(s.now())).
				Where(sq.Eq{"user_id": userID}).
				ToSql()
		case errors.Is(err, sql.ErrNoRows):
			query, args, err = s.sb.Insert("user_settings").
				Columns("user_id", "voice_type", "updated_at").
				Values(userID, voiceType, dbTime(s.now())).
				ToSql()
		default:
			return fmt.Errorf("select settings: %w", err)
		}
		if err != nil {
			return fmt.Errorf("build settings write: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("write settings: %w", err)
		}
		return nil
	})
}

// ListHistory returns the user's viewed articles, most recent first. Entries
// whose article was deleted or has no thumbnail or URL are left out.
func (s *Store) ListHistory(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	builder := s.sb.Select("h.news_id", "n.title", "n.thumbnail_image_url", "n.url", "n.category_name", "h.viewed_at").
		From("article_histories h").
		Join("news_articles n ON n.id = h.news_id").
		Where(sq.Eq{"h.user_id": userID, "h.is_deleted": false, "n.is_deleted": false}).
		Where(sq.NotEq{"n.thumbnail_image_url": "", "n.url": ""}).
		OrderBy("h.viewed_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			e      = domain.HistoryEntry{UserID: userID}
			viewed timestamp
		)
		if err := rows.Scan(&e.ArticleID, &e.Title, &e.ThumbnailImageURL, &e.URL, &e.Category, &viewed); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.ViewedAt = viewed.In(s.loc)
		entries = append(entries, e)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return entries, nil
}
