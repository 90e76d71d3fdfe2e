// Package common provides the data structures shared by the RPC client and server
// of the lock service. It defines the wire message, the configuration of both
// sides and the logger factory installed into Dragonboat.
//
// Key Components:
//
//   - Message: Core data structure of every request and response. The factory
//     methods build the request and response of each store primitive
//     (set-if-unset, get, get-set, delete). A failed response carries the
//     error text and the store.RetCode of the error, so the client can rebuild it.
//
//   - MessageType: Enumeration of the supported operations.
//
//   - ServerConfig: Shards and backend settings of a server node, including the
//     RAFT parameters for dstore shards, the Redis address for rstore shards and
//     the etcd endpoints for estore shards. Provides conversions into the
//     Dragonboat configuration types.
//
//   - ClientConfig: Endpoints, timeouts, retries and socket options of a client.
//
//   - Logger: Custom logger that keeps the format of all Dragonboat and project
//     loggers consistent. InitLoggers installs it and sets every level at once.
package common
