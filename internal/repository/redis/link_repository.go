package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"

	"github.com/redis/go-redis/v9"
)

const backend = "redis"

// Each link is a hash at "<prefix>url:<code>" with the same fields as the
// SQL urls table. IDs come from INCR on "<prefix>url:seq".
//
// Both keys are touched by one script, so on Redis Cluster the prefix must
// carry a hash tag, e.g. "{shortlink}:".

// insertScript creates the hash only if the code is unused. Scripts run
// atomically, so the existence check and the write cannot interleave with
// another insert. Returns the new id, or 0 when the code is taken.
var insertScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return 0
	end
	local id = redis.call('INCR', KEYS[2])
	redis.call('HSET', KEYS[1], 'id', id, 'long_url', ARGV[1], 'short_url', ARGV[2], 'clicks', 0)
	return id
`)

// incrementScript bumps the counter of an existing link and returns
// {id, long_url, clicks}, or nil when the code does not exist.
// HINCRBY alone would create a missing hash.
var incrementScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return false
	end
	local clicks = redis.call('HINCRBY', KEYS[1], 'clicks', 1)
	local fields = redis.call('HMGET', KEYS[1], 'id', 'long_url')
	return {fields[1], fields[2], clicks}
`)

// linkRepository is the Redis implementation of repository.LinkRepository
type linkRepository struct {
	client *redis.Client
	prefix string
}

// NewLinkRepository creates a Redis link repository; prefix namespaces keys
func NewLinkRepository(client *redis.Client, prefix string) repository.LinkRepository {
	return &linkRepository{
		client: client,
		prefix: prefix,
	}
}

func (r *linkRepository) linkKey(shortCode string) string {
	return fmt.Sprintf("%surl:%s", r.prefix, shortCode)
}

func (r *linkRepository) seqKey() string {
	return r.prefix + "url:seq"
}

// Insert stores a new link unless the code already exists
func (r *linkRepository) Insert(ctx context.Context, link *domain.Link) error {
	defer metrics.ObserveStore(backend, "insert", time.Now())

	id, err := insertScript.Run(
		ctx,
		r.client,
		[]string{r.linkKey(link.ShortCode), r.seqKey()},
		link.LongURL,
		link.ShortCode,
	).Int64()
	if err != nil {
		metrics.RecordStoreError(backend, "insert")
		return domain.NewStorageError("insert", err)
	}

	if id == 0 {
		return domain.ErrDuplicateCode
	}

	link.ID = id
	link.Clicks = 0
	return nil
}

// IncrementClicks atomically adds one to the counter of an existing link
func (r *linkRepository) IncrementClicks(ctx context.Context, shortCode string) (*domain.Link, error) {
	defer metrics.ObserveStore(backend, "increment", time.Now())

	result, err := incrementScript.Run(ctx, r.client, []string{r.linkKey(shortCode)}).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError(backend, "increment")
		return nil, domain.NewStorageError("increment", err)
	}

	link, err := parseIncrementResult(shortCode, result)
	if err != nil {
		metrics.RecordStoreError(backend, "increment")
		return nil, domain.NewStorageError("increment", err)
	}

	return link, nil
}

// GetByShortCode reads the link hash without modifying it
func (r *linkRepository) GetByShortCode(ctx context.Context, shortCode string) (*domain.Link, error) {
	defer metrics.ObserveStore(backend, "get", time.Now())

	fields, err := r.client.HGetAll(ctx, r.linkKey(shortCode)).Result()
	if err != nil {
		metrics.RecordStoreError(backend, "get")
		return nil, domain.NewStorageError("get", err)
	}

	// HGETALL on a missing key returns an empty map
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}

	link, err := parseHash(fields)
	if err != nil {
		metrics.RecordStoreError(backend, "get")
		return nil, domain.NewStorageError("get", err)
	}

	return link, nil
}

// Migrate is a no-op: Redis hashes need no schema
func (r *linkRepository) Migrate(ctx context.Context) error {
	return nil
}

// Ping checks connectivity to Redis
func (r *linkRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return domain.NewStorageError("ping", err)
	}
	return nil
}

// Close closes the Redis client
func (r *linkRepository) Close() error {
	return r.client.Close()
}

func parseHash(fields map[string]string) (*domain.Link, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id field: %w", err)
	}

	clicks, err := strconv.ParseInt(fields["clicks"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid clicks field: %w", err)
	}

	return &domain.Link{
		ID:        id,
		LongURL:   fields["long_url"],
		ShortCode: fields["short_url"],
		Clicks:    clicks,
	}, nil
}

func parseIncrementResult(shortCode string, result []interface{}) (*domain.Link, error) {
	if len(result) != 3 {
		return nil, fmt.Errorf("unexpected result format")
	}

	idStr, ok := result[0].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected id type %T", result[0])
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id field: %w", err)
	}

	longURL, ok := result[1].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected long_url type %T", result[1])
	}

	clicks, ok := result[2].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected clicks type %T", result[2])
	}

	return &domain.Link{
		ID:        id,
		LongURL:   longURL,
		ShortCode: shortCode,
		Clicks:    clicks,
	}, nil
}
