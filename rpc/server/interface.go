package server

import (
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a Message and a store as parameters.
	// It returns a Message as a response
	// If an error occurs, it should be set in the response
	Handle(req *common.Message, store store.IStore) (resp *common.Message)
}

// IRPCServer serves the configured shards over a transport
type IRPCServer interface {
	// Serve creates the stores of all shards and blocks while the transport is listening
	Serve() error
	// Close stops the transport and releases the store backends (raft node host, redis and etcd clients)
	Close() error
}
