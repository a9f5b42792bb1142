package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return clock }

	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrMiss))

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	clock = clock.Add(time.Minute)
	_, err = s.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestMemoryStoreIncr(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return clock }

	for want := int64(1); want <= 3; want++ {
		n, err := s.Incr(ctx, "c", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	clock = clock.Add(time.Hour)
	n, err := s.Incr(ctx, "c", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStoreSweepsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return clock }

	for i := 0; i < 50; i++ {
		_, err := s.Incr(ctx, fmt.Sprintf("rate:%d", i), time.Second)
		require.NoError(t, err)
	}
	require.NoError(t, s.Set(ctx, "kept", []byte("x"), time.Hour))
	require.NoError(t, s.Set(ctx, "forever", []byte("x"), 0))
	assert.Len(t, s.entries, 52)

	clock = clock.Add(2 * time.Minute)
	_, err := s.Incr(ctx, "rate:new", time.Second)
	require.NoError(t, err)
	assert.Len(t, s.entries, 3)

	v, err := s.Get(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), v)
}

func TestNewFallsBackToMemory(t *testing.T) {
	_, ok := New(nil, "x").(*MemoryStore)
	assert.True(t, ok)
}

func TestRedisStore(t *testing.T) {
	client := testhelpers.SetupTestRedis(t)
	ctx := context.Background()
	s := New(client, "test")

	_, err := s.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrMiss))

	require.NoError(t, s.Set(ctx, "k", []byte(`{"a":1}`), time.Minute))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))

	n, err := s.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ttl, err := client.TTL(ctx, "test:c").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
