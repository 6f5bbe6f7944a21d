package storage

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS publishers (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(50) NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(30) NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS news_articles (
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		url VARCHAR(225) NOT NULL,
		published_at TIMESTAMP NOT NULL,
		summary_text TEXT NOT NULL,
		male_audio_url VARCHAR(255) NOT NULL DEFAULT '',
		female_audio_url VARCHAR(255) NOT NULL DEFAULT '',
		original_image_url VARCHAR(200) NOT NULL DEFAULT '',
		thumbnail_image_url VARCHAR(255) NOT NULL DEFAULT '',
		author VARCHAR(20) NOT NULL DEFAULT '',
		category_name VARCHAR(30) NOT NULL DEFAULT '',
		press_id VARCHAR(36) NOT NULL REFERENCES publishers(id),
		category_id VARCHAR(36) NOT NULL REFERENCES categories(id),
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS news_articles_live_url ON news_articles (url) WHERE is_deleted = FALSE`,
	`CREATE INDEX IF NOT EXISTS news_articles_published ON news_articles (published_at)`,
	`CREATE TABLE IF NOT EXISTS user_keywords (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		keyword VARCHAR(50) NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_preferred_presses (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		press_id VARCHAR(36) NOT NULL REFERENCES publishers(id),
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_categories (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		category_id VARCHAR(36) NOT NULL REFERENCES categories(id),
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS article_histories (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		news_id VARCHAR(36) NOT NULL REFERENCES news_articles(id),
		viewed_at TIMESTAMP NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS article_histories_user ON article_histories (user_id, viewed_at)`,
	`CREATE TABLE IF NOT EXISTS user_settings (
		user_id VARCHAR(64) PRIMARY KEY,
		voice_type VARCHAR(10) NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// Migrate creates the tables the store relies on. It is safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
