package domain

import (
	"errors"
	"fmt"
)

// Domain errors - callers check them with errors.Is
var (
	// ErrDuplicateCode is returned when a short code is already taken
	ErrDuplicateCode = errors.New("short code already exists")

	// ErrNotFound is returned when no link has the requested short code
	ErrNotFound = errors.New("short code not found")

	// ErrCodeGeneration is returned when the configured attempt cap is hit
	// before a free generated code was found
	ErrCodeGeneration = errors.New("failed to generate unique short code")
)

// StorageError wraps a failure of the underlying store (connection, driver,
// query). It is always surfaced to the caller, never retried.
type StorageError struct {
	Op  string // insert, increment, get, migrate, ping
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError for the given operation
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is or wraps a StorageError
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}
