package kvstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresStore keeps collections as JSONB rows in kv_collections.
type PostgresStore struct {
	db pgxQuerier
}

// NewPostgresStore wraps a pgx pool (or anything with the same surface).
func NewPostgresStore(db pgxQuerier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM kv_collections WHERE key=$1`
	var value []byte
	if err := p.db.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (p *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	const query = `
        INSERT INTO kv_collections (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`
	_, err := p.db.Exec(ctx, query, key, value)
	return err
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv_collections WHERE key=$1`
	_, err := p.db.Exec(ctx, query, key)
	return err
}

// Ping verifies database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	if p == nil || p.db == nil {
		return errors.New("postgres pool not configured")
	}
	return p.db.Ping(ctx)
}
