package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func TestAside_FetchesOnceThenServesFromCache(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			calls++
			*dest = cachedUser{ID: 1, Name: "Ada"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &first, UserTTL, fetch(&first)))
	var second cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &second, UserTTL, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Ada", second.Name)
	assert.True(t, mr.Exists("user:1"))

	InvalidateUser(ctx, 1)
	assert.False(t, mr.Exists("user:1"))
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := withMiniredis(t)
	boom := errors.New("boom")

	var dest cachedUser
	err := Aside(context.Background(), UserKey(2), &dest, UserTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("user:2"))
}

func TestAside_WithoutClient(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest cachedUser
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), UserKey(3), &dest, UserTTL, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}
