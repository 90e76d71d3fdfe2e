// Package estore implements store.IStore on top of etcd v3.
//
//	SetIfUnset -> Txn(If(CreateRevision(key) == 0)).Then(Put(key, value))
//	Get        -> Get(key)
//	GetSet     -> Put(key, value, WithPrevKV())
//	Delete     -> Delete(key)
//
// All keys are stored below a configurable prefix (for example "dlock/"). No etcd leases
// are attached, the lease expiry is part of the token.
package estore
