package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// UserKeywords returns the live keywords a user follows in insertion order.
func (s *Store) UserKeywords(ctx context.Context, userID string) ([]string, error) {
	return s.userColumn(ctx, "user_keywords", "keyword", userID)
}

// PreferredPublisherIDs returns the ids of publishers a user follows.
func (s *Store) PreferredPublisherIDs(ctx context.Context, userID string) ([]string, error) {
	return s.userColumn(ctx, "user_preferred_presses", "press_id", userID)
}

// PreferredCategoryIDs returns the ids of categories a user follows.
func (s *Store) PreferredCategoryIDs(ctx context.Context, userID string) ([]string, error) {
	return s.userColumn(ctx, "user_categories", "category_id", userID)
}

func (s *Store) userColumn(ctx context.Context, table, column, userID string) ([]string, error) {
	query, args, err := s.sb.Select(column).
		From(table).
		Where(sq.Eq{"user_id": userID, "is_deleted": false}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	var values []string
	seen := make(map[string]struct{})
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return values, nil
}

// AddKeyword records a keyword for a user. Blank keywords are ignored.
func (s *Store) AddKeyword(ctx context.Context, userID, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	return s.addUserValue(ctx, "user_keywords", "keyword", userID, keyword)
}

// AddPreferredPublisher records a followed publisher for a user.
func (s *Store) AddPreferredPublisher(ctx context.Context, userID, publisherID string) error {
	return s.addUserValue(ctx, "user_preferred_presses", "press_id", userID, publisherID)
}

// AddPreferredCategory records a followed category for a user.
func (s *Store) AddPreferredCategory(ctx context.Context, userID, categoryID string) error {
	return s.addUserValue(ctx, "user_categories", "category_id", userID, categoryID)
}

func (s *Store) addUserValue(ctx context.Context, table, column, userID, value string) error {
	query, args, err := s.sb.Insert(table).
		Columns("id", "user_id", column, "is_deleted", "created_at").
		Values(uuid.NewString(), userID, value, false, dbTime(s.now())).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// MarkViewed records that a user opened an article. Repeated views move the
// existing history row forward instead of adding another.
func (s *Store) MarkViewed(ctx context.Context, userID, articleID string, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.sb.Select("id").
			From("article_histories").
			Where(sq.Eq{"user_id": userID, "news_id": articleID, "is_deleted": false}).
			Limit(1).
			ToSql()
		if err != nil {
			return fmt.Errorf("build select: %w", err)
		}

		var id string
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
		switch {
		case err == nil:
			query, args, err = s.sb.Update("article_histories").
				Set("viewed_at", dbTime(at)).
				Where(sq.Eq{"id": id}).
				ToSql()
		case errors.Is(err, sql.ErrNoRows):
			query, args, err = s.sb.Insert("article_histories").
				Columns("id", "user_id", "news_id", "viewed_at", "is_deleted").
				Values(uuid.NewString(), userID, articleID, dbTime(at), false).
				ToSql()
		default:
			return fmt.Errorf("select history: %w", err)
		}
		if err != nil {
			return fmt.Errorf("build history write: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("write history: %w", err)
		}
		return nil
	})
}

// ViewedAt returns when a user last opened an article.
func (s *Store) ViewedAt(ctx context.Context, userID, articleID string) (time.Time, bool, error) {
	query, args, err := s.sb.Select("viewed_at").
		From("article_histories").
		Where(sq.Eq{"user_id": userID, "news_id": articleID, "is_deleted": false}).
		Limit(1).
		ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build select: %w", err)
	}

	var viewed timestamp
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&viewed)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("select history: %w", err)
	}
	return viewed.In(s.loc), true, nil
}
