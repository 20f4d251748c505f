package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestGetSetJSON(t *testing.T) {
	ctx := context.Background()
	c, _ := testCache(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, c.SetJSON(ctx, "key", payload{Name: "alice", Count: 3}, time.Minute))

	var got payload
	ok, err := c.GetJSON(ctx, "key", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload{Name: "alice", Count: 3}, got)
}

func TestGetJSONMiss(t *testing.T) {
	c, _ := testCache(t)

	var got int
	ok, err := c.GetJSON(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := testCache(t)

	require.NoError(t, c.SetJSON(ctx, "key", 42, time.Second))
	mr.FastForward(2 * time.Second)

	var got int
	ok, err := c.GetJSON(ctx, "key", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := testCache(t)

	require.NoError(t, c.SetJSON(ctx, "key", 1, time.Minute))
	require.NoError(t, c.Delete(ctx, "key", "never-existed"))

	var got int
	ok, _ := c.GetJSON(ctx, "key", &got)
	assert.False(t, ok)
}

func TestDisabledCacheIsNoOp(t *testing.T) {
	ctx := context.Background()
	c := &Cache{}

	assert.NoError(t, c.SetJSON(ctx, "key", 1, time.Minute))
	var got int
	ok, err := c.GetJSON(ctx, "key", &got)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Delete(ctx, "key"))
}
