// Package base holds the stream transport shared by the tcp and unix packages.
// A connector supplies the protocol specific parts (dialing, listening, socket options),
// base does the rest.
//
// Frames:
//
//	shardId (8 bytes) | requestId (8 bytes) | length (4 bytes) | payload
//
// All integers are big endian. Header and payload go out in one write via net.Buffers.
//
// Client:
//
//	The client keeps ConnectionsPerEndpoint slots per endpoint and picks one round robin.
//	A slot dials lazily and owns at most one session; a session has one reader goroutine
//	that matches responses to waiting requests by request ID. When a session breaks, its
//	in-flight requests fail with transport.ErrConnectionLost and the slot dials a new
//	one on next use. Sends are retried with exponential backoff (avast/retry-go), but
//	only while the request has not been written.
//
// Server:
//
//	One goroutine reads each connection, up to WorkersPerConn requests are handled in
//	parallel and the responses are written in completion order. Request buffers come
//	from a sync.Pool. Close stops accepting, closes all connections and Listen returns
//	once every connection goroutine is done.
package base
