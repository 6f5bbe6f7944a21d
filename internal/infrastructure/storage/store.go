package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"NewsBrief/internal/ports"
)

// Dialect selects the SQL placeholder style and driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Store persists articles, dimensions and user preferences in a relational
// database. Every call is its own session; the sql.DB pool bounds how many
// run at once.
type Store struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	loc *time.Location
	now func() time.Time
}

var (
	_ ports.ArticleRepository      = (*Store)(nil)
	_ ports.PreferenceRepository   = (*Store)(nil)
	_ ports.UserSettingsRepository = (*Store)(nil)
	_ ports.PublisherDirectory     = (*Store)(nil)
)

// Open connects to the database and sizes the connection pool.
func Open(ctx context.Context, dialect Dialect, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

// NewStore wires a sql.DB; times are returned in loc.
func NewStore(db *sql.DB, dialect Dialect, loc *time.Location) *Store {
	var format sq.PlaceholderFormat = sq.Dollar
	if dialect == SQLite {
		format = sq.Question
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(format),
		loc: loc,
		now: time.Now,
	}
}

// DB exposes the underlying pool for lifecycle management.
func (s *Store) DB() *sql.DB {
	return s.db
}

// dbTime converts a timestamp to the stored representation: UTC, whole seconds.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
