// Package store defines the storage contract a distributed lock is built on and
// the unified error type shared by all of its implementations.
//
// The contract (IStore) consists of four primitives only:
//
//   - SetIfUnset: write a value if, and only if, the key is absent (SETNX)
//   - Get: read the current value
//   - GetSet: write a value and return the one it replaced, in one atomic step
//   - Delete: remove the key, a no-op when absent
//
// Each primitive must be atomic with respect to the others on the same key as seen by
// every client. Nothing else is required from a backend: no expiry, no compare-and-delete,
// no transactions. Entries never expire inside the store, the lock protocol keeps the
// expiry in the value.
//
// Key Components:
//
//   - IStore Interface: implemented by every backend and by the RPC client, so a lock
//     manager can run against an in-process store, a RAFT cluster, Redis, etcd or a
//     remote dLock server without code changes.
//
//   - Error System: a structured error with a typed return code (RetCode). Backends map
//     their native failures onto these codes. RetCUnavailable marks a store that could
//     not be reached, which callers can test with IsUnavailable.
//
//   - DBFactory: creates the db.KVDB engine used by local and replicated stores.
//
// Implementations:
//
//   - lstore: in-process store over a db.KVDB, github.com/ValentinKolb/dLock/lib/store/lstore
//   - dstore: RAFT replicated store (Dragonboat), github.com/ValentinKolb/dLock/lib/store/dstore
//   - rstore: Redis store (go-redis), github.com/ValentinKolb/dLock/lib/store/rstore
//   - estore: etcd store (etcd client v3), github.com/ValentinKolb/dLock/lib/store/estore
//
// The storetest sub package holds the conformance suite every implementation runs.
package store
