// Package storetest provides a conformance suite for store.IStore implementations.
//
// Every backend runs the same suite from its own tests:
//
//	storetest.RunStoreTests(t, "RedisStore", func(t *testing.T) store.IStore {
//		return rstore.NewRedisStore(client, time.Second)
//	})
package storetest

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory creates a fresh, empty store for one sub test.
type Factory func(t *testing.T) store.IStore

// RunStoreTests checks a store implementation against the IStore contract.
func RunStoreTests(t *testing.T, name string, factory Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("SetIfUnset", func(t *testing.T) {
			testSetIfUnset(t, factory(t))
		})
		t.Run("GetAbsent", func(t *testing.T) {
			testGetAbsent(t, factory(t))
		})
		t.Run("GetSet", func(t *testing.T) {
			testGetSet(t, factory(t))
		})
		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(t))
		})
		t.Run("BinaryValues", func(t *testing.T) {
			testBinaryValues(t, factory(t))
		})
		t.Run("ConcurrentSetIfUnset", func(t *testing.T) {
			testConcurrentSetIfUnset(t, factory(t))
		})
		t.Run("ConcurrentGetSet", func(t *testing.T) {
			testConcurrentGetSet(t, factory(t))
		})
	})
}

func testSetIfUnset(t *testing.T, s store.IStore) {
	written, err := s.SetIfUnset("res:_lock", []byte("1"))
	require.NoError(t, err)
	assert.True(t, written)

	written, err = s.SetIfUnset("res:_lock", []byte("2"))
	require.NoError(t, err)
	assert.False(t, written, "second SetIfUnset must not overwrite")

	value, ok, err := s.Get("res:_lock")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("1"), value)
}

func testGetAbsent(t *testing.T, s store.IStore) {
	value, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func testGetSet(t *testing.T, s store.IStore) {
	prev, ok, err := s.GetSet("swap", []byte("a"))
	require.NoError(t, err)
	assert.False(t, ok, "no previous value expected")
	assert.Empty(t, prev)

	prev, ok, err = s.GetSet("swap", []byte("b"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), prev)

	value, ok, err := s.Get("swap")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("b"), value)
}

func testDelete(t *testing.T, s store.IStore) {
	_, err := s.SetIfUnset("del", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete("del"))
	_, ok, err := s.Get("del")
	require.NoError(t, err)
	assert.False(t, ok)

	// idempotent
	require.NoError(t, s.Delete("del"))
	require.NoError(t, s.Delete("never-written"))

	written, err := s.SetIfUnset("del", []byte("y"))
	require.NoError(t, err)
	assert.True(t, written, "key must be free again after Delete")
}

func testBinaryValues(t *testing.T, s store.IStore) {
	value := []byte{0, 1, 2, 254, 255, '\n', ':'}
	written, err := s.SetIfUnset("bin", value)
	require.NoError(t, err)
	require.True(t, written)

	got, ok, err := s.Get("bin")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value, got)
}

func testConcurrentSetIfUnset(t *testing.T, s store.IStore) {
	const workers = 16
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		errs    atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			written, err := s.SetIfUnset("race", []byte(fmt.Sprintf("w%d", i)))
			if err != nil {
				errs.Add(1)
				return
			}
			if written {
				winners.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.Zero(t, errs.Load())
	assert.Equal(t, int32(1), winners.Load(), "exactly one SetIfUnset must win")
}

func testConcurrentGetSet(t *testing.T, s store.IStore) {
	const workers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]int{}
		errs atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			prev, ok, err := s.GetSet("chain", []byte(fmt.Sprintf("w%d", i)))
			if err != nil {
				errs.Add(1)
				return
			}
			if ok {
				mu.Lock()
				seen[string(prev)]++
				mu.Unlock()
			}
		}(i)
	}
	close(start)
	wg.Wait()
	require.Zero(t, errs.Load())

	final, ok, err := s.Get("chain")
	require.NoError(t, err)
	require.True(t, ok)
	seen[string(final)]++

	assert.Len(t, seen, workers, "every written value must show up exactly once")
	for value, count := range seen {
		assert.Equal(t, 1, count, "value %s observed %d times", value, count)
	}
}
