package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/devrev/timeline/internal/model"
)

// RedisEventStream implements EventStream on Redis streams. Each scope gets
// its own stream; entries are appended with XADD.
type RedisEventStream struct {
	client *redis.Client
	maxLen int64
	logger *zap.Logger
}

// NewRedisEventStream creates a new Redis stream transport. maxLen > 0
// enables approximate stream trimming on append.
func NewRedisEventStream(host string, port int, password string, db int, maxLen int64, logger *zap.Logger) (EventStream, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisEventStream{
		client: client,
		maxLen: maxLen,
		logger: logger,
	}, nil
}

// NewRedisEventStreamWithClient wraps an existing client, sharing its
// connection pool
func NewRedisEventStreamWithClient(client *redis.Client, maxLen int64, logger *zap.Logger) EventStream {
	return &RedisEventStream{
		client: client,
		maxLen: maxLen,
		logger: logger,
	}
}

// Append appends a change event to the stream keyed by the event's scope
func (s *RedisEventStream) Append(ctx context.Context, event *model.ChangeEvent) error {
	values := map[string]interface{}{
		"event_id": event.ID,
		"data":     event.Data,
		"kind":     event.Kind,
		"type":     event.Type,
	}
	if event.Extra != "" {
		values["extra"] = event.Extra
	}

	args := &redis.XAddArgs{
		Stream: event.Scope,
		Values: values,
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append %s event to stream %s: %w", event.Kind, event.Scope, err)
	}

	s.logger.Debug("Appended change event",
		zap.String("scope", event.Scope),
		zap.String("kind", event.Kind),
		zap.String("event_id", event.ID))

	return nil
}

// Ping checks the Redis connection
func (s *RedisEventStream) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisEventStream) Close() error {
	return s.client.Close()
}
