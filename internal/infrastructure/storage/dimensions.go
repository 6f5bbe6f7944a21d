package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"NewsBrief/internal/domain"
)

// ResolvePublisher returns the live publisher named name, creating it in its
// own committed transaction when absent.
func (s *Store) ResolvePublisher(ctx context.Context, name string) (domain.Publisher, error) {
	id, created, err := s.resolveDimension(ctx, "publishers", name)
	if err != nil {
		return domain.Publisher{}, fmt.Errorf("resolve publisher %s: %w", name, err)
	}
	return domain.Publisher{ID: id, Name: name, CreatedAt: created.In(s.loc)}, nil
}

// ResolveCategory returns the live category named name, creating it in its
// own committed transaction when absent.
func (s *Store) ResolveCategory(ctx context.Context, name string) (domain.Category, error) {
	id, created, err := s.resolveDimension(ctx, "categories", name)
	if err != nil {
		return domain.Category{}, fmt.Errorf("resolve category %s: %w", name, err)
	}
	return domain.Category{ID: id, Name: name, CreatedAt: created.In(s.loc)}, nil
}

func (s *Store) resolveDimension(ctx context.Context, table, name string) (string, timestamp, error) {
	var (
		id      string
		created timestamp
	)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.sb.Select("id", "created_at").
			From(table).
			Where(sq.Eq{"name": name, "is_deleted": false}).
			Limit(1).
			ToSql()
		if err != nil {
			return fmt.Errorf("build select: %w", err)
		}

		err = tx.QueryRowContext(ctx, query, args...).Scan(&id, &created)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("select: %w", err)
		}

		id = uuid.NewString()
		created = timestamp{Time: dbTime(s.now())}
		query, args, err = s.sb.Insert(table).
			Columns("id", "name", "is_deleted", "created_at").
			Values(id, name, false, created.Time).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		return nil
	})

	return id, created, err
}

// PublisherByName looks up a live publisher without creating it.
func (s *Store) PublisherByName(ctx context.Context, name string) (domain.Publisher, error) {
	query, args, err := s.sb.Select("id", "created_at").
		From("publishers").
		Where(sq.Eq{"name": name, "is_deleted": false}).
		Limit(1).
		ToSql()
	if err != nil {
		return domain.Publisher{}, fmt.Errorf("build select: %w", err)
	}

	var (
		id      string
		created timestamp
	)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Publisher{}, fmt.Errorf("publisher %s: %w", name, domain.ErrNotFound)
		}
		return domain.Publisher{}, fmt.Errorf("select publisher: %w", err)
	}
	return domain.Publisher{ID: id, Name: name, CreatedAt: created.In(s.loc)}, nil
}

// PublisherByID looks up a live publisher by id.
func (s *Store) PublisherByID(ctx context.Context, id string) (domain.Publisher, error) {
	query, args, err := s.sb.Select("name", "created_at").
		From("publishers").
		Where(sq.Eq{"id": id, "is_deleted": false}).
		Limit(1).
		ToSql()
	if err != nil {
		return domain.Publisher{}, fmt.Errorf("build select: %w", err)
	}

	var (
		name    string
		created timestamp
	)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Publisher{}, fmt.Errorf("publisher %s: %w", id, domain.ErrNotFound)
		}
		return domain.Publisher{}, fmt.Errorf("select publisher: %w", err)
	}
	return domain.Publisher{ID: id, Name: name, CreatedAt: created.In(s.loc)}, nil
}
