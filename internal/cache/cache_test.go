package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseClient(t *testing.T, c Client) {
	t.Helper()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	v, err = c.Take(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	_, err = c.Take(ctx, "k")
	assert.True(t, IsNotFound(err), "second take must miss")

	require.NoError(t, c.Set(ctx, "d", "1", 0))
	require.NoError(t, c.Delete(ctx, "d"))
	_, err = c.Get(ctx, "d")
	assert.True(t, IsNotFound(err))
	assert.NoError(t, c.Ping(ctx))
}

func TestMemoryClient(t *testing.T) {
	c := NewMemory("test")
	defer c.Close()
	exerciseClient(t, c)
}

func TestMemoryClient_Expiry(t *testing.T) {
	c := NewMemory("")
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "short", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	_, err := c.Get(ctx, "short")
	assert.True(t, IsNotFound(err))
}

func TestRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New(Config{Driver: "redis", Addr: mr.Addr(), Prefix: "sc"})
	require.NoError(t, err)
	defer c.Close()

	exerciseClient(t, c)

	require.NoError(t, c.Set(context.Background(), "ttl", "v", time.Minute))
	assert.True(t, mr.Exists("sc:ttl"))
	mr.FastForward(2 * time.Minute)
	_, err = c.Get(context.Background(), "ttl")
	assert.True(t, IsNotFound(err))
}
