package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimitAllow(t *testing.T) {
	store := NewMemoryRateLimitStore()
	ctx := context.Background()

	// First five attempts pass, the sixth is rejected
	for i := 0; i < 5; i++ {
		allowed, err := store.Allow(ctx, "login:203.0.113.7", 5, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d should be allowed", i+1)
	}

	allowed, err := store.Allow(ctx, "login:203.0.113.7", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestMemoryRateLimitKeysAreIndependent(t *testing.T) {
	store := NewMemoryRateLimitStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Allow(ctx, "login:203.0.113.7", 5, 15*time.Minute)
		require.NoError(t, err)
	}

	// Exhausting one key leaves others untouched
	allowed, err := store.Allow(ctx, "login:198.51.100.9", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = store.Allow(ctx, "forgot:203.0.113.7", 3, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryRateLimitSlidingWindow(t *testing.T) {
	store := NewMemoryRateLimitStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Allow(ctx, "forgot:203.0.113.7", 3, 200*time.Millisecond)
		require.NoError(t, err)
	}

	allowed, err := store.Allow(ctx, "forgot:203.0.113.7", 3, 200*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Old attempts fall out of the window
	time.Sleep(250 * time.Millisecond)

	allowed, err = store.Allow(ctx, "forgot:203.0.113.7", 3, 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryRateLimitReset(t *testing.T) {
	store := NewMemoryRateLimitStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Allow(ctx, "login:203.0.113.7", 5, 15*time.Minute)
		require.NoError(t, err)
	}

	allowed, err := store.Allow(ctx, "login:203.0.113.7", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, store.Reset(ctx, "login:203.0.113.7"))

	allowed, err = store.Allow(ctx, "login:203.0.113.7", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryRateLimitConcurrent(t *testing.T) {
	store := NewMemoryRateLimitStore()
	ctx := context.Background()

	const goroutines = 20
	const limit = 5

	var wg sync.WaitGroup
	allowedCount := make(chan bool, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, err := store.Allow(ctx, "login:203.0.113.7", limit, 15*time.Minute)
			require.NoError(t, err)
			allowedCount <- allowed
		}()
	}

	wg.Wait()
	close(allowedCount)

	var total int
	for allowed := range allowedCount {
		if allowed {
			total++
		}
	}

	assert.Equal(t, limit, total)
}

func TestMemoryRateLimitManyKeys(t *testing.T) {
	store := NewMemoryRateLimitStore()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		allowed, err := store.Allow(ctx, fmt.Sprintf("login:10.0.0.%d", i), 5, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}
