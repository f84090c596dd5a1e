package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	recorderrors "github.com/devrev/timeline/internal/errors"
)

// insertUniqueScript conditionally inserts a member at a score. ZADD NX only
// guards member uniqueness, not score uniqueness, so the occupancy check and
// the insert run as one script to stay atomic.
var insertUniqueScript = redis.NewScript(`
if redis.call("ZCOUNT", KEYS[1], ARGV[1], ARGV[1]) > 0 then
	return 0
end
redis.call("ZADD", KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// RedisSortedStore implements TimeOrderedStore on Redis sorted sets
type RedisSortedStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisSortedStore creates a new Redis sorted-set store
func NewRedisSortedStore(host string, port int, password string, db int, logger *zap.Logger) (TimeOrderedStore, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSortedStore{
		client: client,
		logger: logger,
	}, nil
}

// NewRedisSortedStoreWithClient wraps an existing client, sharing its
// connection pool
func NewRedisSortedStoreWithClient(client *redis.Client, logger *zap.Logger) TimeOrderedStore {
	return &RedisSortedStore{
		client: client,
		logger: logger,
	}
}

// InsertUnique inserts the payload at the score unless the score is occupied
func (s *RedisSortedStore) InsertUnique(ctx context.Context, namespace string, score int64, payload []byte) (bool, error) {
	inserted, err := insertUniqueScript.Run(ctx, s.client, []string{namespace}, score, payload).Int()
	if err != nil {
		return false, fmt.Errorf("failed to insert at score %d: %w", score, err)
	}
	return inserted == 1, nil
}

// Get returns the payload at the exact score
func (s *RedisSortedStore) Get(ctx context.Context, namespace string, score int64) ([]byte, error) {
	members, err := s.client.ZRangeByScore(ctx, namespace, &redis.ZRangeBy{
		Min:    formatScore(score),
		Max:    formatScore(score),
		Offset: 0,
		Count:  1,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get entry at score %d: %w", score, err)
	}
	if len(members) == 0 {
		return nil, ErrNotFound
	}
	return []byte(members[0]), nil
}

// All returns up to limit payloads in ascending score order
func (s *RedisSortedStore) All(ctx context.Context, namespace string, limit int64) ([][]byte, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	members, err := s.client.ZRangeByScore(ctx, namespace, &redis.ZRangeBy{
		Min:    "-inf",
		Max:    "+inf",
		Offset: 0,
		Count:  limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan namespace %s: %w", namespace, err)
	}
	return toPayloads(members), nil
}

// CurrentValue returns the payload with the highest score <= now
func (s *RedisSortedStore) CurrentValue(ctx context.Context, namespace string, now int64) ([]byte, error) {
	members, err := s.client.ZRevRangeByScore(ctx, namespace, &redis.ZRangeBy{
		Min:    "-inf",
		Max:    formatScore(now),
		Offset: 0,
		Count:  1,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get current value: %w", err)
	}
	if len(members) == 0 {
		return nil, ErrNotFound
	}
	return []byte(members[0]), nil
}

// Range returns up to limit payloads with start <= score <= stop
func (s *RedisSortedStore) Range(ctx context.Context, namespace string, start, stop, limit int64) ([][]byte, error) {
	if start > stop {
		return nil, recorderrors.InvalidRange(start, stop)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	members, err := s.client.ZRangeByScore(ctx, namespace, &redis.ZRangeBy{
		Min:    formatScore(start),
		Max:    formatScore(stop),
		Offset: 0,
		Count:  limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range namespace %s: %w", namespace, err)
	}
	return toPayloads(members), nil
}

// Count returns the cardinality of the sub-collection
func (s *RedisSortedStore) Count(ctx context.Context, namespace string) (int64, error) {
	count, err := s.client.ZCard(ctx, namespace).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count namespace %s: %w", namespace, err)
	}
	return count, nil
}

// RemoveAt removes the entry at the exact score
func (s *RedisSortedStore) RemoveAt(ctx context.Context, namespace string, score int64) (int64, error) {
	removed, err := s.client.ZRemRangeByScore(ctx, namespace, formatScore(score), formatScore(score)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to remove entry at score %d: %w", score, err)
	}
	return removed, nil
}

// RemoveRange removes all entries with start <= score <= stop
func (s *RedisSortedStore) RemoveRange(ctx context.Context, namespace string, start, stop int64) (int64, error) {
	if start > stop {
		return 0, recorderrors.InvalidRange(start, stop)
	}
	removed, err := s.client.ZRemRangeByScore(ctx, namespace, formatScore(start), formatScore(stop)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to remove range: %w", err)
	}
	return removed, nil
}

// Ping checks the Redis connection
func (s *RedisSortedStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisSortedStore) Close() error {
	return s.client.Close()
}

func formatScore(score int64) string {
	return strconv.FormatInt(score, 10)
}

func toPayloads(members []string) [][]byte {
	payloads := make([][]byte, 0, len(members))
	for _, m := range members {
		payloads = append(payloads, []byte(m))
	}
	return payloads
}
