package rstore

import (
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/storetest"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (store.IStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Second), mr
}

func TestRedisStore(t *testing.T) {
	storetest.RunStoreTests(t, "RedisStore", func(t *testing.T) store.IStore {
		s, _ := newTestStore(t)
		return s
	})
}

func TestNoRedisTTL(t *testing.T) {
	s, mr := newTestStore(t)

	written, err := s.SetIfUnset("res:_lock", []byte("1760000000.5"))
	require.NoError(t, err)
	require.True(t, written)

	assert.Zero(t, mr.TTL("res:_lock"), "tokens must not carry a redis TTL")

	got, err := mr.Get("res:_lock")
	require.NoError(t, err)
	assert.Equal(t, "1760000000.5", got)
}

func TestWrongTypeIsInternalError(t *testing.T) {
	s, mr := newTestStore(t)
	_, err := mr.Lpush("list", "x")
	require.NoError(t, err)

	_, _, err = s.Get("list")
	require.Error(t, err)
	assert.Equal(t, store.RetCInternalError, store.CodeOf(err))
	assert.False(t, store.IsUnavailable(err))
}

func TestUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	s := NewRedisStore(client, time.Second)
	mr.Close()

	_, err = s.SetIfUnset("k", []byte("v"))
	require.Error(t, err)
	assert.True(t, store.IsUnavailable(err), "got %v", err)

	_, _, err = s.GetSet("k", []byte("v"))
	assert.True(t, store.IsUnavailable(err), "got %v", err)
}
