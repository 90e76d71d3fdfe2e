package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/db"
	"github.com/ValentinKolb/dLock/lib/db/engines/maple"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStore() store.IStore {
	return lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
}

func TestBenchNoOverlap(t *testing.T) {
	s := newLocalStore()
	result, err := bench(context.Background(), s, lockmgr.Key("bench:_lock"), benchConfig{
		Workers:  4,
		Duration: 200 * time.Millisecond,
		Hold:     100 * time.Microsecond,
		Wait:     time.Millisecond,
		Lease:    time.Second,
	})
	require.NoError(t, err)
	defer result.Latency.Stop()

	assert.Zero(t, result.Overlaps)
	assert.Positive(t, result.Acquired)
	assert.Equal(t, result.Acquired+result.Stolen, result.Latency.Count())

	_, held, err := s.Get("bench:_lock")
	require.NoError(t, err)
	assert.False(t, held, "every worker releases before it stops")
}

// brokenStore fails every operation
type brokenStore struct{ store.IStore }

var errBroken = store.NewError(store.RetCUnavailable, "broken")

func (brokenStore) SetIfUnset(string, []byte) (bool, error) { return false, errBroken }

func TestBenchStopsOnStoreError(t *testing.T) {
	_, err := bench(context.Background(), brokenStore{newLocalStore()}, lockmgr.Key("bench:_lock"), benchConfig{
		Workers:  2,
		Duration: time.Second,
		Wait:     time.Millisecond,
		Lease:    time.Second,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBroken))
}
