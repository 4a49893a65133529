package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Versioned, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "dashboard", time.Minute), mr
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"calls": calls}, nil
	}

	key, err := c.BuildKey(ctx, "kpi", "7")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:kpi:7:1", key)

	var out map[string]int
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, out["calls"])

	require.NoError(t, c.Bump(ctx))
	key, err = c.BuildKey(ctx, "kpi", "7")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:kpi:7:2", key)
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	assert.Equal(t, 2, calls)
}

func TestNilCacheFallsThroughToLoader(t *testing.T) {
	var c *Versioned
	ctx := context.Background()
	key, err := c.BuildKey(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "cache:a:b", key)

	var out []string
	require.NoError(t, c.FetchJSON(ctx, key, &out, func(context.Context) (any, error) {
		return []string{"x"}, nil
	}))
	assert.Equal(t, []string{"x"}, out)
	assert.NoError(t, c.Bump(ctx))
}

func TestListenForInvalidationReceivesBumps(t *testing.T) {
	c, _ := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan int64, 1)
	require.NoError(t, c.ListenForInvalidation(ctx, func(v int64) { got <- v }))
	_, err := c.Version(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Bump(ctx))

	select {
	case v := <-got:
		assert.Equal(t, int64(2), v)
	case <-time.After(2 * time.Second):
		t.Fatal("bump not received")
	}
}
