package storage

import (
	"context"
	"iter"

	"github.com/agubarev/perimeter/pkg/util/timestamp"
)

// Trackable is a capability interface for records that carry audit stamps
type Trackable interface {
	StampCreated(actor string, ts timestamp.Timestamp)
	StampModified(actor string, ts timestamp.Timestamp)
}

// SoftDeletable is a capability interface for records that are retired
// by flipping a flag instead of being physically removed
type SoftDeletable interface {
	Deleted() bool
	MarkDeleted(actor string, ts timestamp.Timestamp)
}

// Store is a generic document-access contract, keyed by a storage key string.
// Soft-deleted records are invisible to Get/Exists/GetAll; Delete retires
// records that are SoftDeletable and physically removes the rest.
type Store[T any] interface {
	// Add stamps creation audit fields and persists a new record;
	// fails with ErrAlreadyExists when an active record holds the key
	Add(ctx context.Context, key string, v T) (T, error)

	// Get returns an active record or fails with ErrNotFound
	Get(ctx context.Context, key string) (T, error)

	// Update stamps modification audit fields and persists an existing
	// record; fails with ErrNotFound when the key has never been stored
	Update(ctx context.Context, key string, v T) (T, error)

	// Delete retires or removes an active record
	Delete(ctx context.Context, key string) error

	// Exists reports whether an active record holds the key
	Exists(ctx context.Context, key string) (bool, error)

	// GetAll produces a lazy, restartable sequence of all active records
	GetAll(ctx context.Context) iter.Seq2[T, error]
}

// KeyScanner is implemented by backends that can enumerate physical
// records by key prefix regardless of their soft-delete state
type KeyScanner[T any] interface {
	ScanPrefix(ctx context.Context, prefix string) iter.Seq2[string, T]
}

type ctxKey uint8

// CKActor is the context key under which the acting subject travels
const CKActor ctxKey = 1

// WithActor returns a context carrying the acting subject for audit stamping
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, CKActor, actor)
}

// Actor returns the acting subject carried by a given context
func Actor(ctx context.Context) string {
	if actor, ok := ctx.Value(CKActor).(string); ok {
		return actor
	}

	return "system"
}

func stampCreated(ctx context.Context, v interface{}) {
	if tr, ok := v.(Trackable); ok {
		tr.StampCreated(Actor(ctx), timestamp.Now())
	}
}

func stampModified(ctx context.Context, v interface{}) {
	if tr, ok := v.(Trackable); ok {
		tr.StampModified(Actor(ctx), timestamp.Now())
	}
}

func isDeleted(v interface{}) bool {
	if sd, ok := v.(SoftDeletable); ok {
		return sd.Deleted()
	}

	return false
}
