package repository

import (
	"context"

	"shortlink/internal/domain"
)

// LinkRepository defines the storage operations behind the link store.
//
// Every implementation enforces short code uniqueness with the storage
// engine's own constraint and increments clicks in a single storage
// operation, so correctness holds across goroutines, processes and server
// instances without application-level locking.
type LinkRepository interface {
	// Insert stores a new link and sets link.ID.
	// Returns domain.ErrDuplicateCode, and writes nothing, when the short
	// code is already taken.
	Insert(ctx context.Context, link *domain.Link) error

	// IncrementClicks adds exactly one to the click counter and returns the
	// link as it is after the increment.
	// Returns domain.ErrNotFound if the short code does not exist.
	IncrementClicks(ctx context.Context, shortCode string) (*domain.Link, error)

	// GetByShortCode reads a link without modifying it.
	// Returns domain.ErrNotFound if the short code does not exist.
	GetByShortCode(ctx context.Context, shortCode string) (*domain.Link, error)

	// Migrate creates the urls schema if it is missing
	Migrate(ctx context.Context) error

	// Ping checks that the store is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying connections
	Close() error
}
