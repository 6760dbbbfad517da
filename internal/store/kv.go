// Package store persists study plans, node statuses and the auth session
// behind a small revisioned key-value port. Backends exist for SQLite,
// Redis and memory; ProgressStore layers the domain operations on top.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key is absent or deleted.
	ErrNotFound = errors.New("store: key not found")
	// ErrConflict is returned when a conditional write sees a different
	// revision than expected.
	ErrConflict = errors.New("store: revision conflict")
)

// AnyRevision disables the revision check on Put.
const AnyRevision int64 = -1

// Entry is a stored value together with its revision. Revisions start at 1
// and grow by one on every write or delete of the key. A key that never
// existed has revision 0.
type Entry struct {
	Value    []byte
	Revision int64
}

// KV is the storage port. Get on a missing key returns ErrNotFound together
// with the revision of its tombstone so callers can still write
// conditionally.
type KV interface {
	Get(ctx context.Context, key string) (Entry, error)
	// Put writes value if the current revision equals expect (or expect is
	// AnyRevision) and returns the new revision.
	Put(ctx context.Context, key string, value []byte, expect int64) (int64, error)
	Delete(ctx context.Context, keys ...string) error
	// Keys lists live keys starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Transactor is implemented by backends that can apply several operations
// atomically.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, kv KV) error) error
}
