package store

import (
	"context"
	"errors"

	"github.com/devrev/timeline/internal/model"
)

// ErrNotFound is returned when no entry matches a lookup
var ErrNotFound = errors.New("not found")

// DefaultLimit bounds scans when the caller passes no explicit limit
const DefaultLimit = 100

// TimeOrderedStore provides score-ordered primitives over sub-collections
// addressed by a namespace key (scope + record-kind suffix). Payloads are
// opaque serialized records; the score is the record start.
//
// Each operation is atomic on its own; no transaction spans multiple calls.
type TimeOrderedStore interface {
	// InsertUnique inserts the payload at the score only if no entry with
	// that score exists. Returns false without mutation when the score is
	// occupied. The check and the insert are a single atomic step.
	InsertUnique(ctx context.Context, namespace string, score int64, payload []byte) (bool, error)

	// Get returns the payload stored at the exact score, or ErrNotFound
	Get(ctx context.Context, namespace string, score int64) ([]byte, error)

	// All returns up to limit payloads in ascending score order
	All(ctx context.Context, namespace string, limit int64) ([][]byte, error)

	// CurrentValue returns the payload with the highest score <= now, or
	// ErrNotFound when the sub-collection is empty or all scores exceed now
	CurrentValue(ctx context.Context, namespace string, now int64) ([]byte, error)

	// Range returns up to limit payloads with start <= score <= stop in
	// ascending order. start > stop is a caller error, not an empty result.
	Range(ctx context.Context, namespace string, start, stop, limit int64) ([][]byte, error)

	// Count returns the cardinality of the sub-collection
	Count(ctx context.Context, namespace string) (int64, error)

	// RemoveAt removes the entry at the exact score, returning 0 or 1
	RemoveAt(ctx context.Context, namespace string, score int64) (int64, error)

	// RemoveRange removes all entries with start <= score <= stop,
	// returning the number removed
	RemoveRange(ctx context.Context, namespace string, start, stop int64) (int64, error)

	// Ping checks the store connection
	Ping(ctx context.Context) error

	// Close releases the store connection
	Close() error
}

// EventStream is the append-only change notification transport, keyed by
// scope. Append order within a scope is the only ordering guarantee.
type EventStream interface {
	Append(ctx context.Context, event *model.ChangeEvent) error
	Ping(ctx context.Context) error
	Close() error
}

// PendingEventStore queues change events whose stream append failed, for
// later redelivery
type PendingEventStore interface {
	Enqueue(ctx context.Context, event *model.PendingEvent) error
	// Dequeue removes and returns up to limit queued events in enqueue order
	Dequeue(ctx context.Context, limit int64) ([]*model.PendingEvent, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
