package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"
)

const backend = "sqlite"

const schema = `
	CREATE TABLE IF NOT EXISTS urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		long_url TEXT NOT NULL,
		short_url TEXT NOT NULL UNIQUE,
		clicks INTEGER NOT NULL DEFAULT 0
	);
`

// linkRepository is the SQLite (and libSQL) implementation of
// repository.LinkRepository
type linkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a SQLite link repository
func NewLinkRepository(db *sql.DB) repository.LinkRepository {
	return &linkRepository{db: db}
}

// Insert adds a link; the UNIQUE constraint on short_url rejects a taken code
// without modifying the existing row
func (r *linkRepository) Insert(ctx context.Context, link *domain.Link) error {
	defer metrics.ObserveStore(backend, "insert", time.Now())

	query := `
		INSERT INTO urls (long_url, short_url, clicks)
		VALUES (?, ?, 0)
		ON CONFLICT (short_url) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, link.LongURL, link.ShortCode).Scan(&id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrDuplicateCode
		}
		metrics.RecordStoreError(backend, "insert")
		return domain.NewStorageError("insert", err)
	}

	link.ID = id
	link.Clicks = 0
	return nil
}

// IncrementClicks adds one to the counter in a single UPDATE ... RETURNING
func (r *linkRepository) IncrementClicks(ctx context.Context, shortCode string) (*domain.Link, error) {
	defer metrics.ObserveStore(backend, "increment", time.Now())

	query := `
		UPDATE urls
		SET clicks = clicks + 1
		WHERE short_url = ?
		RETURNING id, long_url, short_url, clicks
	`

	link := &domain.Link{}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, shortCode).Scan(
			&link.ID,
			&link.LongURL,
			&link.ShortCode,
			&link.Clicks,
		)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		metrics.RecordStoreError(backend, "increment")
		return nil, domain.NewStorageError("increment", err)
	}

	return link, nil
}

// GetByShortCode reads a link without touching its counter
func (r *linkRepository) GetByShortCode(ctx context.Context, shortCode string) (*domain.Link, error) {
	defer metrics.ObserveStore(backend, "get", time.Now())

	query := `SELECT id, long_url, short_url, clicks FROM urls WHERE short_url = ?`

	link := &domain.Link{}
	err := r.db.QueryRowContext(ctx, query, shortCode).Scan(
		&link.ID,
		&link.LongURL,
		&link.ShortCode,
		&link.Clicks,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		metrics.RecordStoreError(backend, "get")
		return nil, domain.NewStorageError("get", err)
	}

	return link, nil
}

// Migrate creates the urls table if it does not exist
func (r *linkRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return domain.NewStorageError("migrate", err)
	}
	return nil
}

// Ping checks that the database is reachable
func (r *linkRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return domain.NewStorageError("ping", err)
	}
	return nil
}

// Close closes the database handle
func (r *linkRepository) Close() error {
	return r.db.Close()
}

// withTx runs fn in a transaction that is committed only if fn succeeds and
// rolled back on every other path
func (r *linkRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
