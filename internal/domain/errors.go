package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a request missing required fields.
	ErrValidation = errors.New("validation failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrChatNotConfigured signals that no chat provider is available.
	ErrChatNotConfigured = errors.New("chat provider not configured")
	// ErrChatProviderError signals a chat provider failure.
	ErrChatProviderError = errors.New("chat provider error")
	// ErrStorage signals a persistence failure.
	ErrStorage = errors.New("storage failure")
	// ErrDimensionMismatch signals a vector of the wrong dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrCategoryNotFound signals a missing user category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryAlreadyExists signals a duplicate user category.
	ErrCategoryAlreadyExists = errors.New("category already exists")
)

// StorageDriftError wraps ErrStorage for failures that happen after the
// in-memory state was already mutated: memory is now ahead of disk and the
// caller must not assume the snapshot round-tripped.
type StorageDriftError struct {
	Op  string
	Err error
}

func (e *StorageDriftError) Error() string {
	return fmt.Sprintf("%s: %s: in-memory state ahead of disk: %v", ErrStorage.Error(), e.Op, e.Err)
}

func (e *StorageDriftError) Unwrap() error { return ErrStorage }

// NewStorageDrift creates a storage drift error for the given operation.
func NewStorageDrift(op string, err error) error {
	return &StorageDriftError{Op: op, Err: err}
}
