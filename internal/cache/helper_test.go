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

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestGetSetJSON(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	var missed payload
	hit, err := GetJSON(ctx, rdb, "k", &missed)
	require.NoError(t, err)
	assert.False(t, hit)

	SetJSON(ctx, rdb, "k", payload{Name: "a", Count: 2}, time.Minute)

	var got payload
	hit, err = GetJSON(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Name: "a", Count: 2}, got)
}

func TestGetJSONCorruptEntryIsDropped(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, "k", "{not json", time.Minute).Err())

	var got payload
	hit, err := GetJSON(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	// The corrupt value is gone.
	err = rdb.Get(ctx, "k").Err()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestAside(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	loads := 0
	load := func() (payload, error) {
		loads++
		return payload{Name: "loaded", Count: loads}, nil
	}

	got, err := Aside(ctx, rdb, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, "loaded", got.Name)

	// Second call is served from the cache.
	got, err = Aside(ctx, rdb, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, got.Count)

	Invalidate(ctx, rdb, "k")
	_, err = Aside(ctx, rdb, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestNilClientDegradesToLoad(t *testing.T) {
	ctx := context.Background()

	var got payload
	hit, err := GetJSON(ctx, nil, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	SetJSON(ctx, nil, "k", payload{}, time.Minute)
	Invalidate(ctx, nil, "k")

	loads := 0
	value, err := Aside(ctx, nil, "k", time.Minute, func() (payload, error) {
		loads++
		return payload{Name: "direct"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, "direct", value.Name)
}
