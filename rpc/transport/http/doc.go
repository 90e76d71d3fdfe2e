// Package http carries RPC payloads as HTTP POST bodies.
// A request for shard 7 goes to POST {endpoint}/7, the response body is the serialized
// response message. Endpoints may be given as host:port or as a full URL.
//
// Besides the RPC route the server answers:
//
//   - GET /metrics: the global VictoriaMetrics set in Prometheus text format, including
//     the dlock_acquire_* counters of lock managers living in the server process and
//     the dlock_rpc_* request counters.
//   - GET /health: "ok".
//
// The client spreads requests round robin over its endpoints. Only dial failures are
// retried, a request that reached a server is never sent again. With log level debug
// the server logs every request with its status and duration.
package http
