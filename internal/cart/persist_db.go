package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS cart_snapshots (
	cart_key   TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PostgresPersister struct {
	db *sql.DB
}

func NewPostgresPersister(db *sql.DB) *PostgresPersister {
	return &PostgresPersister{db: db}
}

func (p *PostgresPersister) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := p.db.ExecContext(ctx, snapshotSchema)
		return err
	})
}

func (p *PostgresPersister) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return p.db.PingContext(ctx)
	})
}

func (p *PostgresPersister) Save(ctx context.Context, key string, data []byte) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := p.db.ExecContext(ctx, `
			INSERT INTO cart_snapshots (cart_key, data, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (cart_key) DO UPDATE
			SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
		`, key, string(data))
		return err
	})
}

func (p *PostgresPersister) Load(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return p.db.QueryRowContext(ctx, `
			SELECT data::text FROM cart_snapshots WHERE cart_key = $1
		`, key).Scan(&data)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
