// Package util provides small helpers shared by the db.KVDB engines and the
// command line tooling: seeded string hashing (xxhash) used for shard selection
// and for deriving stable numeric replica IDs from node names.
package util
