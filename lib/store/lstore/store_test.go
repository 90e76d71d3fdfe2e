package lstore

import (
	"strconv"
	"sync"
	"testing"

	"github.com/ValentinKolb/dLock/lib/db"
	"github.com/ValentinKolb/dLock/lib/db/engines/maple"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	storetest.RunStoreTests(t, "LocalStore", func(t *testing.T) store.IStore {
		return NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
	})
}

// readOnlyDB hides every write feature of the wrapped engine
type readOnlyDB struct {
	db.KVDB
}

func (r readOnlyDB) SupportsFeature(f db.Feature) bool {
	return f == db.FeatureGet
}

func TestUnsupportedOperation(t *testing.T) {
	s := NewLocalStore(func() db.KVDB { return readOnlyDB{maple.NewMapleDB(nil)} })

	_, err := s.SetIfUnset("k", []byte("v"))
	require.Error(t, err)
	assert.Equal(t, store.RetCUnsupportedOperation, store.CodeOf(err))

	_, _, err = s.GetSet("k", []byte("v"))
	assert.Equal(t, store.RetCUnsupportedOperation, store.CodeOf(err))

	assert.Equal(t, store.RetCUnsupportedOperation, store.CodeOf(s.Delete("k")))

	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentGetSetFormsChain(t *testing.T) {
	s := NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
	_, err := s.SetIfUnset("k", []byte("initial"))
	require.NoError(t, err)

	const writers = 32
	previous := make([]string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prev, ok, err := s.GetSet("k", []byte(strconv.Itoa(i)))
			assert.NoError(t, err)
			assert.True(t, ok)
			previous[i] = string(prev)
		}(i)
	}
	wg.Wait()

	final, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)

	// every value is either handed to exactly one swapper or still stored
	seen := map[string]int{string(final): 1}
	for i, prev := range previous {
		seen[prev]++
		assert.NotEqual(t, strconv.Itoa(i), prev, "a swap must not return its own value")
	}
	assert.Equal(t, 1, seen["initial"])
	for i := 0; i < writers; i++ {
		assert.Equal(t, 1, seen[strconv.Itoa(i)], "value %d", i)
	}
}
