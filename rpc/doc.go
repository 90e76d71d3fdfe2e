// Package rpc is the network layer of the lock service. It lets lock managers in
// any number of processes share one store hosted by a server.
//
// The package is organized into several subpackages:
//
//   - common: Message protocol, configuration structures and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization (Binary, JSON, GOB).
//
//   - client: store.IStore implementation that forwards every primitive to a server.
//
//   - server: Server hosting the shards and dispatching requests to their stores.
package rpc
