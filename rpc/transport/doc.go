// Package transport defines how RPC payloads move between client and server.
// Payloads are opaque bytes addressed to a shard, serialization happens above this layer.
//
//   - IRPCServerTransport: accepts requests and passes them to the registered
//     ServerHandleFunc. Listen blocks until Close.
//
//   - IRPCClientTransport: connects to one or more endpoints and sends a request to a
//     shard, waiting for its response.
//
// Implementations live in the tcp, unix and http subpackages, tcp and unix share the
// framing of the base package.
//
// Send errors fall in two groups. ErrNoConnection and dial failures mean the request
// was never sent and may be retried. ErrTimeout and ErrConnectionLost mean it may have
// been applied, so it is returned to the caller. IsRetryable tells them apart.
package transport
