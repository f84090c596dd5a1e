package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/devrev/timeline/internal/model"
)

// DefaultPendingQueueKey is the list key holding events awaiting redelivery
const DefaultPendingQueueKey = "timeline:pending_events"

// RedisPendingStore implements PendingEventStore on a Redis list. Events are
// pushed to the tail and popped from the head, preserving enqueue order.
type RedisPendingStore struct {
	client   *redis.Client
	queueKey string
	logger   *zap.Logger
}

// NewRedisPendingStore creates a pending-event store on an existing client
func NewRedisPendingStore(client *redis.Client, queueKey string, logger *zap.Logger) PendingEventStore {
	if queueKey == "" {
		queueKey = DefaultPendingQueueKey
	}
	return &RedisPendingStore{
		client:   client,
		queueKey: queueKey,
		logger:   logger,
	}
}

// Enqueue appends an event to the redelivery queue
func (s *RedisPendingStore) Enqueue(ctx context.Context, event *model.PendingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal pending event: %w", err)
	}
	if err := s.client.RPush(ctx, s.queueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue pending event: %w", err)
	}
	return nil
}

// Dequeue removes and returns up to limit queued events in enqueue order
func (s *RedisPendingStore) Dequeue(ctx context.Context, limit int64) ([]*model.PendingEvent, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	raw, err := s.client.LPopCount(ctx, s.queueKey, int(limit)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue pending events: %w", err)
	}

	events := make([]*model.PendingEvent, 0, len(raw))
	for _, item := range raw {
		var event model.PendingEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			// A malformed entry is dropped rather than wedging the queue
			s.logger.Error("Dropping malformed pending event", zap.Error(err))
			continue
		}
		events = append(events, &event)
	}
	return events, nil
}

// Count returns the number of queued events
func (s *RedisPendingStore) Count(ctx context.Context) (int64, error) {
	count, err := s.client.LLen(ctx, s.queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count pending events: %w", err)
	}
	return count, nil
}

// Ping checks the Redis connection
func (s *RedisPendingStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op; the shared client is closed by its owner
func (s *RedisPendingStore) Close() error {
	return nil
}
