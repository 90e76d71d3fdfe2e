package lstore

import (
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dLock/lib/db"
	"github.com/ValentinKolb/dLock/lib/db/util"
	"github.com/ValentinKolb/dLock/lib/store"
)

// writeStripes is the number of locks writes to different keys are spread over
const writeStripes = 64

type storeImpl struct {
	db      db.KVDB
	index   atomic.Uint64
	stripes [writeStripes]sync.Mutex
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// This works by using the maple engine from the db package directly.
func NewLocalStore(factory store.DBFactory) store.IStore {
	return &storeImpl{
		db:    factory(),
		index: atomic.Uint64{},
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// write takes the next write index and applies the write while holding the
// stripe lock of key. Two writes to the same key are therefore applied in index
// order and the engine never sees a stale write.
func (s *storeImpl) write(key string, apply func(index uint64)) {
	mu := &s.stripes[util.ShardIndex(util.HashString(key, 0), writeStripes)]
	mu.Lock()
	defer mu.Unlock()
	apply(s.incAndGetIndex())
}

func unsupported(op string) error {
	return store.NewError(store.RetCUnsupportedOperation, op+" operation is not supported")
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) SetIfUnset(key string, value []byte) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureSetIfUnset) {
		return false, unsupported("SetIfUnset")
	}
	var written bool
	s.write(key, func(index uint64) {
		written = s.db.SetIfUnset(key, value, index)
	})
	return written, nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return nil, false, unsupported("Get")
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *storeImpl) GetSet(key string, value []byte) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGetSet) {
		return nil, false, unsupported("GetSet")
	}
	var (
		prev []byte
		ok   bool
	)
	s.write(key, func(index uint64) {
		prev, ok = s.db.GetSet(key, value, index)
	})
	return prev, ok, nil
}

func (s *storeImpl) Delete(key string) error {
	if !s.db.SupportsFeature(db.FeatureDelete) {
		return unsupported("Delete")
	}
	s.write(key, func(index uint64) {
		s.db.Delete(key, index)
	})
	return nil
}
