package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, zerolog.Nop()), mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{Name: "a", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k", &got))
	require.Equal(t, payload{Name: "a", Count: 3}, got)
}

func TestCache_MissOnAbsent(t *testing.T) {
	c, _ := newTestCache(t)

	var got payload
	err := c.Get(context.Background(), "absent", &got)
	require.ErrorIs(t, err, ErrMiss)
}

func TestCache_MissOnUndecodable(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set("k", "not json"))

	var got payload
	err := c.Get(context.Background(), "k", &got)
	require.ErrorIs(t, err, ErrMiss)
}

func TestCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{Name: "a"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got payload
	require.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
}

func TestCache_Remember(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	compute := func() (any, error) {
		calls++
		return payload{Name: "fresh", Count: calls}, nil
	}

	var first payload
	require.NoError(t, c.Remember(ctx, "k", time.Minute, &first, compute))
	require.Equal(t, 1, calls)
	require.Equal(t, "fresh", first.Name)

	var second payload
	require.NoError(t, c.Remember(ctx, "k", time.Minute, &second, compute))
	require.Equal(t, 1, calls)
	require.Equal(t, first, second)
}

func TestCache_RememberComputeError(t *testing.T) {
	c, _ := newTestCache(t)

	boom := errors.New("boom")
	var got payload
	err := c.Remember(context.Background(), "k", time.Minute, &got, func() (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestKey(t *testing.T) {
	require.Equal(t, "refresh_token:user-1", Key("refresh_token", "user-1"))
}
