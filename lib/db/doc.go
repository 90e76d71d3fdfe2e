// Package db provides a standardized interface for the key-value engines that back
// a lock store. It defines the KVDB interface that allows for consistent interaction
// with various engines while abstracting implementation details.
//
// The package focuses on:
//   - The four atomic primitives a lease lock needs (SetIfUnset, Get, GetSet, Delete)
//   - Feature discovery through capability flags
//   - Standardized persistence operations (used for RAFT snapshots)
//
// Key Components:
//
//   - KVDB Interface: The core interface that all engines must satisfy. Every write
//     is atomic for its key. SetIfUnset and GetSet are check-and-act operations that
//     must never be split into a read followed by a write.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method.
//
//   - Database Information: The DatabaseInfo structure reports the engine type,
//     the number of entries and implementation-specific metadata.
//
// Note on Write Indices:
//
//	All write operations require a write-index parameter that serves as a logical
//	timestamp. In a replicated setup this is the RAFT log index, so replaying a log
//	over a snapshot never lets an older write overwrite a newer one. A local store
//	simply increments an atomic counter.
//
// Note on Expiry:
//
//	Engines do not expire entries. A lease token encodes its own expiry and is only
//	ever removed by an explicit Delete or replaced by GetSet.
package db
