package maple

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"

	"github.com/ValentinKolb/dLock/lib/db"
	"github.com/ValentinKolb/dLock/lib/db/engines/maple/internal"
	"github.com/ValentinKolb/dLock/lib/db/util"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Constants for database behavior and structure
const (
	magicNum     = "MAPLEDB\x00" // File format identifier
	mapleVersion = 4             // Database version
)

// supportedFeatures lists every feature of the maple engine
var supportedFeatures = []db.Feature{
	db.FeatureSetIfUnset,
	db.FeatureGet,
	db.FeatureGetSet,
	db.FeatureDelete,
	db.FeatureSave,
	db.FeatureLoad,
}

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl implements an in-memory database with sharded data
type mapleImpl struct {
	numShards   int               // Number of shards
	seed        uint64            // Seed for hash function
	shards      []*internal.Shard // Array of shards
	currIndex   atomic.Uint64     // Highest write index seen
	featureMask db.Feature
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards int // Number of shards (0 = auto)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards: runtime.NumCPU(), // Auto-determine based on CPU count
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
func NewMapleDB(opts *DBOptions) db.KVDB {

	// Generate default options if not provided
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}

	var mask db.Feature
	for _, f := range supportedFeatures {
		mask |= f
	}

	return &mapleImpl{
		numShards:   opts.NumShards,
		seed:        util.GenerateSeed(),
		shards:      newShards(opts.NumShards),
		featureMask: mask,
	}
}

func newShards(n int) []*internal.Shard {
	shards := make([]*internal.Shard, n)
	for i := range shards {
		shards[i] = internal.NewShard()
	}
	return shards
}

// shardFor returns the shard responsible for the key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) shardFor(key string) *internal.Shard {
	return internal.GetShard(util.HashString(key, maple.seed), maple.shards)
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// SetIfUnset inserts the value only if the key does not exist.
// A stale write (lower index than the stored entry) is never applied.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetIfUnset(key string, value []byte, writeIndex uint64) bool {
	written := false
	maple.compute(key, writeIndex, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		if loaded {
			return old, false
		}
		written = true
		return internal.Entry{Value: copyBytes(value), Index: writeIndex}, false
	})
	return written
}

// GetSet stores the value and returns the previous one in a single atomic step.
// If the write is stale the stored entry is kept and returned unchanged.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) GetSet(key string, value []byte, writeIndex uint64) ([]byte, bool) {
	var (
		previous []byte
		ok       bool
	)
	maple.compute(key, writeIndex, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		if loaded {
			previous = copyBytes(old.Value)
			ok = true
			if old.IsStale(writeIndex) {
				return old, false
			}
		}
		return internal.Entry{Value: copyBytes(value), Index: writeIndex}, false
	})
	return previous, ok
}

// Delete removes an entry with the specified key. This change is immediate.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Delete(key string, writeIndex uint64) {
	maple.compute(key, writeIndex, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		if loaded && old.IsStale(writeIndex) {
			return old, false
		}
		return old, true
	})
}

// compute is the shared implementation of all write operations.
// The callback runs inside xsync's Compute and therefore sees and replaces the
// entry atomically. Returning true as second value deletes the entry.
func (maple *mapleImpl) compute(key string, writeIndex uint64, fn func(old internal.Entry, loaded bool) (internal.Entry, bool)) {
	maple.SetWriteIdx(writeIndex)
	maple.shardFor(key).Data.Compute(key, fn)
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a value for a key.
// The returned value is a copy of the stored data and therefore safe to use and modify.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Get(key string) ([]byte, bool) {
	e, ok := maple.shardFor(key).Data.Load(key)
	if !ok {
		return nil, false
	}
	return copyBytes(e.Value), true
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

type savedEntry struct {
	key   string
	entry internal.Entry
}

// Save persists the database to the writer.
// Concurrent writes are allowed during Save, the snapshot is fuzzy.
func (maple *mapleImpl) Save(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	var entries []savedEntry
	for _, shard := range maple.shards {
		shard.Data.Range(func(key string, entry internal.Entry) bool {
			entries = append(entries, savedEntry{key, internal.Entry{
				Value: copyBytes(entry.Value),
				Index: entry.Index,
			}})
			return true
		})
	}

	// Header: magic, version, seed, write index, entry count
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	header := []any{uint8(mapleVersion), maple.seed, maple.currIndex.Load(), uint64(len(entries))}
	for _, field := range header {
		if err := binary.Write(bw, binary.LittleEndian, field); err != nil {
			return err
		}
	}

	// Entries: key length, key, index, value length, value
	for _, item := range entries {
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.key))); err != nil {
			return err
		}
		if _, err := bw.WriteString(item.key); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, item.entry.Index); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.entry.Value))); err != nil {
			return err
		}
		if _, err := bw.Write(item.entry.Value); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Load replaces the database content with the snapshot read from r
//
// Thread-safety: This function is not thread-safe and should not be called concurrently
func (maple *mapleImpl) Load(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if int(version) != mapleVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, mapleVersion)
	}

	var seed, writeIdx, count uint64
	for _, field := range []*uint64{&seed, &writeIdx, &count} {
		if err := binary.Read(br, binary.LittleEndian, field); err != nil {
			return err
		}
	}

	shards := newShards(maple.numShards)
	for i := uint64(0); i < count; i++ {
		var keyLen uint32
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return err
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(br, key); err != nil {
			return err
		}
		var index uint64
		if err := binary.Read(br, binary.LittleEndian, &index); err != nil {
			return err
		}
		var valueLen uint32
		if err := binary.Read(br, binary.LittleEndian, &valueLen); err != nil {
			return err
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(br, value); err != nil {
			return err
		}
		shard := internal.GetShard(util.HashString(string(key), seed), shards)
		shard.Data.Store(string(key), internal.Entry{Value: value, Index: index})
	}

	maple.seed = seed
	maple.shards = shards
	maple.currIndex.Store(0)
	maple.SetWriteIdx(writeIdx)
	return nil
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	shardSizes := make([]int, len(maple.shards))
	total := 0
	for i, shard := range maple.shards {
		shardSizes[i] = shard.Data.Size()
		total += shardSizes[i]
	}
	return db.DatabaseInfo{
		Entries:           total,
		DbType:            db.ImplMaple,
		SupportedFeatures: supportedFeatures,
		Metadata: map[string]any{
			"shards":      maple.numShards,
			"shard_sizes": shardSizes,
			"write_index": maple.currIndex.Load(),
		},
	}
}

// SupportsFeature reports whether all features in the mask are supported
func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	return feature&maple.featureMask == feature
}

// --------------------------------------------------------------------------
// Write Index Operations
// --------------------------------------------------------------------------

// SetWriteIdx raises the current index to index if it is higher
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetWriteIdx(index uint64) {
	for {
		curr := maple.currIndex.Load()
		if index <= curr || maple.currIndex.CompareAndSwap(curr, index) {
			return
		}
	}
}

// WriteIdx returns the current index of the database
func (maple *mapleImpl) WriteIdx() uint64 {
	return maple.currIndex.Load()
}

// Close drops all data held by the database
func (maple *mapleImpl) Close() error {
	for _, shard := range maple.shards {
		shard.Data.Clear()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
