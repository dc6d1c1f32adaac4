package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no value is stored under the key.
var ErrKeyNotFound = errors.New("kv: key not found")

// Tx describes a single conditional commit: if the value currently stored
// under CompareKey is byte-identical to CompareValue, write PutValue under
// PutKey and read the value under ReadKey, all atomically.
//
// ReadKey is optional; when empty no companion read is performed.
type Tx struct {
	CompareKey   string
	CompareValue []byte
	PutKey       string
	PutValue     []byte
	ReadKey      string
}

// TxResult reports the outcome of a Tx.
//
// ReadValue is only valid when Committed is true; it is nil when ReadKey was
// empty or had no stored value.
type TxResult struct {
	Committed bool
	ReadValue []byte
}

// Store is the storage contract consumed by the repository core.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key unconditionally (last write wins).
	Set(ctx context.Context, key string, value []byte) error

	// SetIfAbsent stores value under key only if the key has no value, and
	// reports whether the write landed. Losing a race is not an error.
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Commit atomically applies tx. A false Committed result means the
	// precondition failed and nothing was written.
	Commit(ctx context.Context, tx Tx) (TxResult, error)

	// Close releases underlying resources.
	Close() error
}
