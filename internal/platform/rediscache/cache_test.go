package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_GetMissing(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)

	v, ok, err := c.Get(context.Background(), "abc")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, v)
}

func TestCache_SetThenGet(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "abc", "- patient is anxious"))
	v, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "- patient is anxious", v)
	require.True(t, mr.Exists(defaultPrefix+":abc"))
}

func TestCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "abc", "summary"))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_ErrorsWhenServerDown(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	_, _, err := c.Get(context.Background(), "abc")
	require.Error(t, err)
	require.Error(t, c.Set(context.Background(), "abc", "v"))
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("://nope", time.Minute)
	require.Error(t, err)
}
