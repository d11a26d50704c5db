// Package repotest holds behavioral tests shared by every
// repository.LinkRepository implementation.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"shortlink/internal/domain"
	"shortlink/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// OpenFunc returns a migrated, empty repository. Cleanup is registered on t.
type OpenFunc func(t *testing.T) repository.LinkRepository

// Run executes the conformance suite against the repository built by open
func Run(t *testing.T, open OpenFunc) {
	t.Run("InsertAndGet", func(t *testing.T) { testInsertAndGet(t, open(t)) })
	t.Run("InsertAssignsDistinctIDs", func(t *testing.T) { testDistinctIDs(t, open(t)) })
	t.Run("InsertDuplicate", func(t *testing.T) { testInsertDuplicate(t, open(t)) })
	t.Run("IncrementClicks", func(t *testing.T) { testIncrementClicks(t, open(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, open(t)) })
	t.Run("OpaqueValues", func(t *testing.T) { testOpaqueValues(t, open(t)) })
	t.Run("ConcurrentInsertSameCode", func(t *testing.T) { testConcurrentInsertSameCode(t, open(t)) })
	t.Run("ConcurrentIncrement", func(t *testing.T) { testConcurrentIncrement(t, open(t)) })
	t.Run("MigrateIsIdempotent", func(t *testing.T) { testMigrateIdempotent(t, open(t)) })
}

func testInsertAndGet(t *testing.T, repo repository.LinkRepository) {
	ctx := context.Background()

	link := domain.NewLink("https://example.com/long/page", "aZ3kQ9")
	require.NoError(t, repo.Insert(ctx, link))
	assert.NotZero(t, link.ID)

	got, err := repo.GetByShortCode(ctx, "aZ3kQ9")
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
	assert.Equal(t, "https://example.com/long/page", got.LongURL)
	assert.Equal(t, "aZ3kQ9", got.ShortCode)
	assert.Equal(t, int64(0), got.Clicks)
}

func testDistinctIDs(t *testing.T, repo repository.LinkRepository) {
	ctx := context.Background()

	first := domain.NewLink("https://example.com/1", "code01")
	second := domain.NewLink("https://example.com/2", "code02")
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	assert.NotEqual(t, first.ID, second.ID)
}

func testInsertDuplicate(t *testing.T, repo repository.LinkRepository) {
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, domain.NewLink("https://first.example", "abc")))

	err := repo.Insert(ctx, domain.NewLink("https://second.example", "abc"))
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)

	// The losing insert must not have overwritten anything
	got, err := repo.GetByShortCode(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://first.example", got.LongURL)
}

func testIncrementClicks(t *testing.T, repo repository.LinkRepository) {
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, domain.NewLink("https://example.com", "clicks")))

	for want := int64(1); want <= 3; want++ {
		link, err := repo.IncrementClicks(ctx, "clicks")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", link.LongURL)
		assert.Equal(t, want, link.Clicks)
	}

	got, err := repo.GetByShortCode(ctx, "clicks")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Clicks)
}

func testNotFound(t *testing.T, repo repository.LinkRepository) {
	ctx := context.Background()

	_, err := repo.GetByShortCode(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.IncrementClicks(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A failed increment must not create the code
	_, err = repo.GetByShortCode(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testOpaqueValues(t *testing.T, repo repository.LinkRepository) {
	ctx := context.Background()

	// No validation happens at this layer
	require.NoError(t, repo.Insert(ctx, domain.NewLink("", "empty-url")))
	require.NoError(t, repo.Insert(ctx, domain.NewLink("not a url at all", "spaces and ünïcode")))

	got, err := repo.GetByShortCode(ctx, "empty-url")
	require.NoError(t, err)
	assert.Equal(t, "", got.LongURL)

	got, err = repo.GetByShortCode(ctx, "spaces and ünïcode")
	require.NoError(t, err)
	assert.Equal(t, "not a url at all", got.LongURL)
}

func testConcurrentInsertSameCode(t *testing.T, repo repository.LinkRepository) {
	ctx := context.Background()
	const writers = 20

	var (
		wg         sync.WaitGroup
		succeeded  atomic.Int32
		duplicates atomic.Int32
		start      = make(chan struct{})
	)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			err := repo.Insert(ctx, domain.NewLink(fmt.Sprintf("https://example.com/%d", i), "race"))
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, domain.ErrDuplicateCode):
				duplicates.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(writers-1), duplicates.Load())
}

func testConcurrentIncrement(t *testing.T, repo repository.LinkRepository) {
	ctx := context.Background()
	const resolvers = 50

	require.NoError(t, repo.Insert(ctx, domain.NewLink("https://example.com", "hot")))

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		seen  sync.Map
	)
	for i := 0; i < resolvers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			link, err := repo.IncrementClicks(ctx, "hot")
			if assert.NoError(t, err) {
				_, dup := seen.LoadOrStore(link.Clicks, true)
				assert.False(t, dup, "click value %d returned twice", link.Clicks)
			}
		}()
	}
	close(start)
	wg.Wait()

	got, err := repo.GetByShortCode(ctx, "hot")
	require.NoError(t, err)
	assert.Equal(t, int64(resolvers), got.Clicks)
}

func testMigrateIdempotent(t *testing.T, repo repository.LinkRepository) {
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, domain.NewLink("https://example.com", "keep")))
	require.NoError(t, repo.Migrate(ctx))

	got, err := repo.GetByShortCode(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.LongURL)
}
