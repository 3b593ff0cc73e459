package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/manzil-stays/manzil-api/utils"
	"github.com/redis/go-redis/v9"
)

// RateLimitStore counts attempts per key inside a sliding window.
// Allow records the attempt and reports whether it stays under the limit.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

// MemoryRateLimitStore keeps attempt timestamps in process memory.
// Suitable for a single instance; multi-instance deployments should
// use the shared cache store so limits hold across replicas.
type MemoryRateLimitStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewMemoryRateLimitStore creates an in-memory sliding window store
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		attempts: make(map[string][]time.Time),
	}
}

// Allow records the attempt and reports whether the key is within the limit
func (s *MemoryRateLimitStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := utils.UTCNow()
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.attempts[key][:0]
	for _, at := range s.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= limit {
		s.attempts[key] = kept
		return false, nil
	}

	s.attempts[key] = append(kept, now)
	return true, nil
}

// Reset clears the window for a key
func (s *MemoryRateLimitStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, key)
	return nil
}

// RedisRateLimitStore keeps attempt timestamps in a sorted set per key,
// scored by unix nanoseconds, so the window is shared across instances.
type RedisRateLimitStore struct {
	rc     *redis.Client
	prefix string
}

// NewRedisRateLimitStore creates a cache-backed sliding window store
func NewRedisRateLimitStore(rc *redis.Client, prefix string) *RedisRateLimitStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimitStore{rc: rc, prefix: prefix}
}

// Allow records the attempt and reports whether the key is within the limit
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := utils.UTCNow()
	cutoff := now.Add(-window)
	redisKey := s.prefix + ":" + key

	pipe := s.rc.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(cutoff.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count attempts: %w", err)
	}

	if countCmd.Val() >= int64(limit) {
		return false, nil
	}

	pipe = s.rc.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to record attempt: %w", err)
	}

	return true, nil
}

// Reset clears the window for a key
func (s *RedisRateLimitStore) Reset(ctx context.Context, key string) error {
	if err := s.rc.Del(ctx, s.prefix+":"+key).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit key: %w", err)
	}
	return nil
}
