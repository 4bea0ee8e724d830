package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geocache/internal/models"
	"geocache/migrations"
)

// Postgres is the primary Store implementation backed by a pgx pool.
type Postgres struct {
	Pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgres creates a connection pool and verifies connectivity.
// New rows written through BulkUpsert expire after ttl.
func NewPostgres(ctx context.Context, connString string, ttl time.Duration) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{Pool: pool, ttl: ttl}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (p *Postgres) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Get returns the live row for key and records the access. Expired rows are
// treated as absent; they stay on disk until garbage-collected.
func (p *Postgres) Get(ctx context.Context, key string) (*models.StoredRecord, error) {
	row := &models.StoredRecord{}
	err := p.Pool.QueryRow(ctx, `
		UPDATE ip_locations
		SET access_count = access_count + 1, last_accessed = NOW()
		WHERE key = $1 AND expires_at > NOW()
		RETURNING key, attributes, last_updated, expires_at, access_count, last_accessed
	`, key).Scan(&row.Key, &row.Attributes, &row.LastUpdated, &row.ExpiresAt, &row.AccessCount, &row.LastAccessed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read row: %w", err)
	}
	return row, nil
}

// BulkUpsert writes a batch of resolutions in a single statement. On key
// conflict the access count is incremented and the expiry refreshed.
func (p *Postgres) BulkUpsert(ctx context.Context, items []BatchItem) error {
	items = dedupe(items)
	if len(items) == 0 {
		return nil
	}

	var (
		values strings.Builder
		args   []any
	)
	for i, it := range items {
		if i > 0 {
			values.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&values, "($%d, $%d, $%d, $%d, 1, $%d)", n+1, n+2, n+3, n+4, n+3)
		args = append(args, it.Key, it.Attributes, it.Timestamp, it.Timestamp.Add(p.ttl))
	}

	query := fmt.Sprintf(`
		INSERT INTO ip_locations AS l (key, attributes, last_updated, expires_at, access_count, last_accessed)
		VALUES %s
		ON CONFLICT (key) DO UPDATE
		SET attributes = EXCLUDED.attributes,
		    last_updated = EXCLUDED.last_updated,
		    expires_at = EXCLUDED.expires_at,
		    access_count = l.access_count + 1
	`, values.String())

	if _, err := p.Pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("bulk upsert failed: %w", err)
	}
	return nil
}

// DeleteExpired removes rows past their expiry.
func (p *Postgres) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM ip_locations WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired rows: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAll removes every row.
func (p *Postgres) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM ip_locations`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rows: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Available reports whether the database currently answers a ping.
func (p *Postgres) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Pool.Ping(ctx) == nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.Pool.Close()
}
