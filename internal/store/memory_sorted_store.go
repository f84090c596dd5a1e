package store

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	recorderrors "github.com/devrev/timeline/internal/errors"
)

// InMemorySortedStore implements TimeOrderedStore using per-namespace sorted
// slices. It mirrors the Redis implementation's semantics, including atomic
// InsertUnique, and backs tests and single-process deployments.
type InMemorySortedStore struct {
	namespaces map[string][]scoredEntry
	mu         sync.RWMutex
	logger     *zap.Logger
}

type scoredEntry struct {
	score   int64
	payload []byte
}

// NewInMemorySortedStore creates a new in-memory store
func NewInMemorySortedStore(logger *zap.Logger) TimeOrderedStore {
	return &InMemorySortedStore{
		namespaces: make(map[string][]scoredEntry),
		logger:     logger,
	}
}

// InsertUnique inserts the payload at the score unless the score is occupied
func (s *InMemorySortedStore) InsertUnique(ctx context.Context, namespace string, score int64, payload []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.namespaces[namespace]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].score >= score })
	if i < len(entries) && entries[i].score == score {
		return false, nil
	}

	entries = append(entries, scoredEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = scoredEntry{score: score, payload: payload}
	s.namespaces[namespace] = entries
	return true, nil
}

// Get returns the payload at the exact score
func (s *InMemorySortedStore) Get(ctx context.Context, namespace string, score int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.namespaces[namespace]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].score >= score })
	if i < len(entries) && entries[i].score == score {
		return entries[i].payload, nil
	}
	return nil, ErrNotFound
}

// All returns up to limit payloads in ascending score order
func (s *InMemorySortedStore) All(ctx context.Context, namespace string, limit int64) ([][]byte, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.namespaces[namespace]
	payloads := make([][]byte, 0, len(entries))
	for _, e := range entries {
		if int64(len(payloads)) >= limit {
			break
		}
		payloads = append(payloads, e.payload)
	}
	return payloads, nil
}

// CurrentValue returns the payload with the highest score <= now
func (s *InMemorySortedStore) CurrentValue(ctx context.Context, namespace string, now int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.namespaces[namespace]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].score > now })
	if i == 0 {
		return nil, ErrNotFound
	}
	return entries[i-1].payload, nil
}

// Range returns up to limit payloads with start <= score <= stop
func (s *InMemorySortedStore) Range(ctx context.Context, namespace string, start, stop, limit int64) ([][]byte, error) {
	if start > stop {
		return nil, recorderrors.InvalidRange(start, stop)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.namespaces[namespace]
	payloads := make([][]byte, 0)
	for _, e := range entries {
		if e.score < start {
			continue
		}
		if e.score > stop || int64(len(payloads)) >= limit {
			break
		}
		payloads = append(payloads, e.payload)
	}
	return payloads, nil
}

// Count returns the cardinality of the sub-collection
func (s *InMemorySortedStore) Count(ctx context.Context, namespace string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.namespaces[namespace])), nil
}

// RemoveAt removes the entry at the exact score
func (s *InMemorySortedStore) RemoveAt(ctx context.Context, namespace string, score int64) (int64, error) {
	return s.removeBetween(namespace, score, score)
}

// RemoveRange removes all entries with start <= score <= stop
func (s *InMemorySortedStore) RemoveRange(ctx context.Context, namespace string, start, stop int64) (int64, error) {
	if start > stop {
		return 0, recorderrors.InvalidRange(start, stop)
	}
	return s.removeBetween(namespace, start, stop)
}

func (s *InMemorySortedStore) removeBetween(namespace string, start, stop int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.namespaces[namespace]
	kept := entries[:0]
	removed := int64(0)
	for _, e := range entries {
		if e.score >= start && e.score <= stop {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.namespaces[namespace] = kept
	return removed, nil
}

// Ping always succeeds for the in-memory store
func (s *InMemorySortedStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *InMemorySortedStore) Close() error {
	return nil
}
