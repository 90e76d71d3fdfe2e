package testing

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dLock/lib/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs the conformance suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("SetIfUnset", func(t *testing.T) {
			testSetIfUnset(t, factory())
		})

		t.Run("GetSet", func(t *testing.T) {
			testGetSet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("StaleWrites", func(t *testing.T) {
			testStaleWrites(t, factory())
		})

		t.Run("GetReturnsCopy", func(t *testing.T) {
			testGetReturnsCopy(t, factory())
		})

		t.Run("ConcurrentSetIfUnset", func(t *testing.T) {
			testConcurrentSetIfUnset(t, factory())
		})

		t.Run("ConcurrentGetSet", func(t *testing.T) {
			testConcurrentGetSet(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// requireFeature skips the test if the database does not support the feature
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skipf("feature %s not supported", feature)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetIfUnset(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSetIfUnset|db.FeatureGet)

	assert.True(t, database.SetIfUnset("k", []byte("first"), 1))
	assert.False(t, database.SetIfUnset("k", []byte("second"), 2))

	value, ok := database.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("first"), value)

	_, ok = database.Get("missing")
	assert.False(t, ok)
}

func testGetSet(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureGetSet|db.FeatureGet)

	prev, ok := database.GetSet("k", []byte("v1"), 1)
	assert.False(t, ok, "no previous value expected for a new key")
	assert.Nil(t, prev)

	prev, ok = database.GetSet("k", []byte("v2"), 2)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), prev)

	value, ok := database.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), value)
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureDelete|db.FeatureSetIfUnset|db.FeatureGet)

	require.True(t, database.SetIfUnset("k", []byte("v"), 1))
	database.Delete("k", 2)

	_, ok := database.Get("k")
	assert.False(t, ok)

	// deleting a missing key is a no-op
	database.Delete("k", 3)
	database.Delete("never-written", 4)

	// the key can be taken again after delete
	assert.True(t, database.SetIfUnset("k", []byte("again"), 5))
}

func testStaleWrites(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureGetSet|db.FeatureDelete|db.FeatureGet)

	database.GetSet("k", []byte("new"), 10)

	prev, ok := database.GetSet("k", []byte("old"), 5)
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), prev)
	value, _ := database.Get("k")
	assert.Equal(t, []byte("new"), value, "stale get-set must keep the stored entry")

	database.Delete("k", 7)

	value, ok = database.Get("k")
	require.True(t, ok, "stale delete must be ignored")
	assert.Equal(t, []byte("new"), value)
	assert.GreaterOrEqual(t, database.WriteIdx(), uint64(10))
}

func testGetReturnsCopy(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSetIfUnset|db.FeatureGet)

	input := []byte("value")
	require.True(t, database.SetIfUnset("k", input, 1))
	input[0] = 'X'

	value, _ := database.Get("k")
	assert.Equal(t, []byte("value"), value, "stored value must not alias the input")

	value[0] = 'Y'
	again, _ := database.Get("k")
	assert.Equal(t, []byte("value"), again, "Get must return a copy")
}

func testConcurrentSetIfUnset(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSetIfUnset)

	const workers = 64
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		index   atomic.Uint64
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if database.SetIfUnset("contended", []byte(fmt.Sprintf("w%d", i)), index.Add(1)) {
				winners.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load(), "exactly one writer must win")
}

func testConcurrentGetSet(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureGetSet|db.FeatureGet)

	const workers = 32
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		index atomic.Uint64
		seen  = map[string]int{}
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			prev, ok := database.GetSet("chain", []byte(fmt.Sprintf("w%d", i)), index.Add(1))
			if ok {
				mu.Lock()
				seen[string(prev)]++
				mu.Unlock()
			}
		}(i)
	}
	close(start)
	wg.Wait()

	final, ok := database.Get("chain")
	require.True(t, ok)
	seen[string(final)]++

	// every written value is observed exactly once: as a previous value or as the final one
	assert.Len(t, seen, workers)
	for value, count := range seen {
		assert.Equal(t, 1, count, "value %s observed %d times", value, count)
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	source := factory()
	defer source.Close()
	requireFeature(t, source, db.FeatureSave|db.FeatureLoad|db.FeatureSetIfUnset|db.FeatureGet)

	for i := 0; i < 100; i++ {
		require.True(t, source.SetIfUnset(fmt.Sprintf("key-%d", i), []byte(fmt.Sprintf("value-%d", i)), uint64(i+1)))
	}

	var buf bytes.Buffer
	require.NoError(t, source.Save(&buf))

	target := factory()
	defer target.Close()
	require.NoError(t, target.Load(bytes.NewReader(buf.Bytes())))

	for i := 0; i < 100; i++ {
		value, ok := target.Get(fmt.Sprintf("key-%d", i))
		require.True(t, ok, "key-%d missing after load", i)
		assert.Equal(t, []byte(fmt.Sprintf("value-%d", i)), value)
	}
	assert.Equal(t, source.WriteIdx(), target.WriteIdx())

	assert.Error(t, target.Load(bytes.NewReader([]byte("not a snapshot"))))
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSetIfUnset)

	database.SetIfUnset("a", []byte("1"), 1)
	database.SetIfUnset("b", []byte("2"), 2)

	info := database.GetInfo()
	assert.Equal(t, 2, info.Entries)
	assert.NotEmpty(t, info.DbType)
	assert.NotEmpty(t, info.SupportedFeatures)
}
