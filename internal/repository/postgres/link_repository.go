package postgres

import (
	"context"
	"errors"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const backend = "postgres"

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

const schema = `
	CREATE TABLE IF NOT EXISTS urls (
		id        BIGSERIAL PRIMARY KEY,
		long_url  TEXT      NOT NULL,
		short_url TEXT      NOT NULL UNIQUE,
		clicks    BIGINT    NOT NULL DEFAULT 0 CHECK (clicks >= 0)
	)
`

// linkRepository is the PostgreSQL implementation of repository.LinkRepository
type linkRepository struct {
	db *pgxpool.Pool
}

// NewLinkRepository creates a PostgreSQL link repository on top of a pool
func NewLinkRepository(db *pgxpool.Pool) repository.LinkRepository {
	return &linkRepository{db: db}
}

// Insert adds a link in its own transaction. The unique constraint on
// short_url decides between concurrent inserts of the same code: the loser
// gets no row back from ON CONFLICT DO NOTHING.
func (r *linkRepository) Insert(ctx context.Context, link *domain.Link) error {
	defer metrics.ObserveStore(backend, "insert", time.Now())

	query := `
		INSERT INTO urls (long_url, short_url, clicks)
		VALUES ($1, $2, 0)
		ON CONFLICT (short_url) DO NOTHING
		RETURNING id
	`

	var id int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, link.LongURL, link.ShortCode).Scan(&id)
	})
	if err != nil {
		if isDuplicate(err) {
			return domain.ErrDuplicateCode
		}
		metrics.RecordStoreError(backend, "insert")
		return domain.NewStorageError("insert", err)
	}

	link.ID = id
	link.Clicks = 0
	return nil
}

// IncrementClicks bumps the counter with a single UPDATE ... RETURNING,
// so concurrent resolves of the same code are serialized by the row lock
func (r *linkRepository) IncrementClicks(ctx context.Context, shortCode string) (*domain.Link, error) {
	defer metrics.ObserveStore(backend, "increment", time.Now())

	query := `
		UPDATE urls
		SET clicks = clicks + 1
		WHERE short_url = $1
		RETURNING id, long_url, short_url, clicks
	`

	link := &domain.Link{}
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, shortCode).Scan(
			&link.ID,
			&link.LongURL,
			&link.ShortCode,
			&link.Clicks,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

	query := `
		SELECT id, long_url, short_url, clicks
		FROM urls
		WHERE short_url = $1
	`

	link := &domain.Link{}
	err := r.db.QueryRow(ctx, query, shortCode).Scan(
		&link.ID,
		&link.LongURL,
		&link.ShortCode,
		&link.Clicks,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		metrics.RecordStoreError(backend, "get")
		return nil, domain.NewStorageError("get", err)
	}

	return link, nil
}

// Migrate creates the urls table if it does not exist
func (r *linkRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return domain.NewStorageError("migrate", err)
	}
	return nil
}

// Ping checks connectivity to the database
func (r *linkRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return domain.NewStorageError("ping", err)
	}
	return nil
}

// Close closes every connection in the pool
func (r *linkRepository) Close() error {
	r.db.Close()
	return nil
}

// isDuplicate reports whether err means the short code is already taken.
// ErrNoRows comes from ON CONFLICT DO NOTHING; a unique_violation can still
// surface if the constraint is hit outside the conflict target.
func isDuplicate(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
