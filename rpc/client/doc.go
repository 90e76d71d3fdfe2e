// Package client implements the RPC client of the lock store system.
// It provides an implementation of the store.IStore interface that communicates
// with a remote server via RPC, so a lockmgr.ILockManager can run against the
// single authoritative store endpoint from any process.
//
// The package focuses on:
//   - Transparent RPC access to the four store primitives
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCStore: Factory function that creates a client implementing the store.IStore
//     interface. This client forwards all operations to remote servers via the configured
//     transport layer.
//
// Errors:
//
//	Every error returned by the client is a *store.Error. Transport failures (no
//	connection, timeouts, a connection lost mid request) carry RetCUnavailable, so
//	store.IsUnavailable tells a caller that the outcome of a write is unknown. Errors the
//	server reported keep the return code they were sent with.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:8080"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	s, err := client.NewRPCStore(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  return err
//	}
//
//	lm := lockmgr.NewLockManager(s, lockmgr.ResourceKey("orders", "42"))
//	err = lm.Mutex(ctx, 100*time.Millisecond, func() error {
//	  return processOrder(42)
//	})
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	All client implementations are thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
