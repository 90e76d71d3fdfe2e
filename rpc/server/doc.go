// Package server implements the RPC server of the lock service.
// A server hosts any number of shards, each shard is one store.IStore that
// remote lock managers use as their shared store.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface for request handlers, the Handle method
//     processes one decoded request against the store of a shard.
//
//   - NewIStoreServerAdapter: Adapter translating the four store primitives
//     into store.IStore calls. It counts requests and errors per message type.
//
//   - NewRPCServer: Creates a server from a config, a transport and a serializer.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 1, Type: common.ShardTypeLocalStore},
//	    {ShardID: 2, Type: common.ShardTypeRedisStore},
//	  },
//	  RedisAddr:     "localhost:6379",
//	  TimeoutSecond: 5,
//	  Transport:     common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	}
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())
//	go func() {
//	  <-ctx.Done()
//	  _ = s.Close()
//	}()
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Shard types, which can be mixed within a single server:
//
//   - ShardTypeLocalStore: in-memory store, for a single node.
//
//   - ShardTypeDistributedStore: Raft replicated store. The RAFT parameters
//     (RTTMillisecond, SnapshotEntries, CompactionOverhead, DataDir, ReplicaID
//     and ClusterMembers) must be configured.
//
//   - ShardTypeRedisStore: store backed by Redis. All rstore shards of a server
//     share the key space of the configured Redis database.
//
//   - ShardTypeEtcdStore: store backed by etcd. Every shard uses its own key
//     prefix below EtcdPrefix.
//
// Serve blocks until Close is called and must only be called once.
package server
