// Package dstore implements store.IStore on a Dragonboat RAFT shard, so a lock key
// survives the loss of a minority of nodes and every node sees the same token.
//
// The package has three parts:
//
//   - distributedStore: the store.IStore client. It encodes every primitive as an
//     internal.Command (writes) or internal.Query (Get) and hands it to the NodeHost.
//
//   - stateMachine: an IConcurrentStateMachine holding one db.KVDB per replica. Update
//     applies committed commands in log order, Lookup answers queries.
//
//   - internal: the binary encoding of commands and queries.
//
// Writes:
//
//	SetIfUnset, GetSet and Delete go through SyncPropose. The RAFT log index of the
//	entry is used as the write index of the db.KVDB, so all replicas order writes the
//	same way. The outcome travels back in the sm.Result: Value is 1 when set-if-unset
//	wrote, for get-set Data holds the previous token and Value tells whether one existed.
//
// Reads:
//
//	Get uses SyncRead. The replica first catches up with the committed log, so a
//	released lock is never reported as held by a lagging follower.
//
// Errors:
//
//	dragonboat.ErrSystemBusy is retried a few times with a short pause. A timeout,
//	a closed shard or any other NodeHost failure is returned as RetCUnavailable, the
//	lock manager passes it to its caller without retrying.
//
// Snapshots:
//
//	SaveSnapshot and RecoverFromSnapshot delegate to db.KVDB Save and Load. The
//	snapshot is taken without blocking Update (fuzzy snapshot), a recovering replica
//	replays the log entries committed after it.
//
// Setup:
//
//	nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	if err != nil { ... }
//
//	dbFactory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	err = nh.StartConcurrentReplica(members, false,
//	    dstore.CreateStateMaschineFactory(dbFactory), shardConfig)
//	if err != nil { ... }
//
//	s := dstore.NewDistributedStore(nh, shardID, 5*time.Second)
//	lm := lockmgr.NewLockManager(s, lockmgr.ResourceKey("orders", "42"))
//
// Run an odd number of replicas (3 or 5). Writes need a leader and a majority, while
// they are missing every Acquire fails with RetCUnavailable. Single node setups are
// better served by lstore.
package dstore
