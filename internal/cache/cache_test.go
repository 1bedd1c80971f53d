package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAsideFetchesOnceThenHits(t *testing.T) {
	useMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			calls++
			*dest = cachedUser{ID: 1, Name: "alice"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &first, time.Minute, fetch(&first)))
	var second cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "alice", second.Name)

	InvalidateUser(ctx, 1)
	var third cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &third, time.Minute, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAsidePropagatesFetchError(t *testing.T) {
	useMiniredis(t)

	var dest cachedUser
	err := Aside(context.Background(), UserKey(2), &dest, time.Minute, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")

	found, err := GetJSON(context.Background(), UserKey(2), &dest)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFlagAndExists(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	require.NoError(t, Flag(ctx, BlacklistKey("jti-1"), time.Minute))
	ok, err := Exists(ctx, BlacklistKey("jti-1"))
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = Exists(ctx, BlacklistKey("jti-1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHelpersWithoutRedis(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	ok, err := Exists(ctx, "anything")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, Flag(ctx, "anything", time.Minute))

	var dest cachedUser
	called := false
	require.NoError(t, Aside(ctx, "k", &dest, time.Minute, func() error { called = true; return nil }))
	assert.True(t, called)
}
