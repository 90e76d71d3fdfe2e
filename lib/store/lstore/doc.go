// Package lstore implements a local, in-memory, single-node store based on the
// store.IStore interface. It is a thin wrapper around any db.KVDB implementation
// with automatic write index management. Data is not persisted between process restarts.
//
// Implementation Details:
//
//   - Write Index Management: The store maintains an atomic counter that is incremented
//     with each write operation and passed to the engine as logical timestamp.
//
//   - Feature Detection: Before executing operations, the store checks if the underlying
//     db.KVDB implementation supports the requested feature. Unsupported operations return
//     RetCUnsupportedOperation.
//
//   - Atomicity: SetIfUnset and GetSet are single engine calls, so the engine's per key
//     atomicity carries over to the store unchanged.
//
// Usage Example:
//
//	factory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	s := lstore.NewLocalStore(factory)
//
//	written, err := s.SetIfUnset("orders:42:_lock", []byte("1760000000.5"))
//
// The local store is what a dLock server uses when a single authoritative store is
// enough, and what tests use for an in-process lock manager. For a fault tolerant setup
// use the dstore package instead.
package lstore
