// Package maple implements a sharded in-memory key-value database (KVDB) that
// provides the four atomic primitives a lease lock is built on. It is a complete
// implementation of the db.KVDB interface with a focus on thread safety and
// short critical sections.
//
// Key Components:
//
//   - mapleImpl: The central database structure implementing db.KVDB. It owns the
//     shards and tracks the highest write index seen. The write index itself is
//     supplied by the caller (an atomic counter for a local store, the RAFT log index
//     for a replicated one).
//
//   - Shard: A partition of the key space backed by an xsync.MapOf. Keys are
//     distributed across shards by hashing them with a database specific seed
//     (xxhash) and taking the higher bits of the hash modulo the shard count.
//
//   - Entry: A stored value together with the write index it was last written with.
//
// Atomicity:
//
//	Every write goes through xsync's Compute, which holds the bucket lock of the key
//	while the callback runs. SetIfUnset and GetSet therefore observe and replace the
//	previous entry in a single step, which is exactly what the lock protocol needs:
//	of two concurrent SetIfUnset calls only one can win, and of two concurrent GetSet
//	calls each sees the value written by the other or the one before both.
//
// Stale Write Prevention:
//
//	A write is only applied if its write index is greater than or equal to the stored
//	index of the entry. When a replica replays log entries over a newer snapshot the
//	older entries are ignored. GetSet with a stale index still reports the stored value
//	as previous value so that callers always see the current state.
//
// Persistence Format:
//
//	1. Magic number "MAPLEDB\x00"
//	2. Version number (currently 4)
//	3. Database seed value for hash function consistency
//	4. Write index
//	5. Number of entries
//	6. For each entry: key length, key, index, value length, value bytes
//
//	Snapshots are fuzzy: Save does not stop concurrent writers. A replicated store
//	relies on the RAFT log to bring a restored replica to a consistent state.
//
// Entries never expire on their own. A lease token carries its expiry in its value, and
// the lock manager decides whether it is expired.
package maple
