// Package rstore implements store.IStore on top of Redis using go-redis.
//
// The primitives map one to one onto Redis commands:
//
//	SetIfUnset -> SETNX key value
//	Get        -> GET key
//	GetSet     -> GETSET key value
//	Delete     -> DEL key
//
// A nil reply (redis.Nil) means the key is absent. Keys are written without a Redis TTL,
// the lease expiry lives in the token itself.
//
// Connection failures (network errors, a closed client, timeouts) are reported as
// store.RetCUnavailable so that callers can tell an unreachable store from a failed command.
package rstore
