package transport

import (
	"errors"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrClosed is returned by operations on a transport that was closed
	ErrClosed = errors.New("transport closed")
	// ErrNoConnection is returned when no connection to any endpoint could be established
	ErrNoConnection = errors.New("no active connections available")
	// ErrTimeout is returned when a request was sent but no response arrived in time.
	// The request may or may not have been applied by the server.
	ErrTimeout = errors.New("request timed out")
	// ErrConnectionLost is returned when the connection broke after the request was sent.
	// The request may or may not have been applied by the server.
	ErrConnectionLost = errors.New("connection lost while waiting for response")
)

// IsRetryable reports whether a request that failed with err can safely be sent again.
// Only requests that never reached the server are retried, a lock write must not be applied twice.
func IsRetryable(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrTimeout) &&
		!errors.Is(err, ErrConnectionLost) &&
		!errors.Is(err, ErrClosed)
}

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request is received
// It takes a shardId and a request as parameters and returns a response
type ServerHandleFunc func(shardId uint64, req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	// The transport layer is responsible for routing the request to the appropriate shard
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and blocks while serving incoming requests.
	// It returns nil once Close was called.
	Listen(config common.ServerConfig) error
	// Close stops accepting requests and closes all open connections
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the response
	Send(shardId uint64, req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
