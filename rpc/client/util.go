package client

import (
	"fmt"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	shardId    uint64
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests
// It takes a request message and returns the response message.
// Every failure is returned as a *store.Error: transport failures as RetCUnavailable,
// server side store errors with the return code they carried over the wire.
func (a *rpcClientAdapter) invokeRPCRequest(req *common.Message) (*common.Message, error) {
	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return nil, store.Errorf(store.RetCInvalidOperation, "RPC client - failed to serialize %s request: %v", req.MsgType, err)
	}

	respBytes, err := a.transport.Send(a.shardId, reqBytes)
	if err != nil {
		Logger.Debugf("RPC client - %s %q on shard %d failed: %v", req.MsgType, req.Key, a.shardId, err)
		return nil, store.Errorf(store.RetCUnavailable, "RPC client - %v", err)
	}

	resp := &common.Message{}
	if err := a.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, store.Errorf(store.RetCInternalError, "RPC client - failed to deserialize response: %v", err)
	}

	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, remoteError(resp)
	}

	if resp.MsgType != req.MsgType {
		return nil, store.Errorf(store.RetCInternalError, "RPC client - unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	return resp, nil
}

// remoteError rebuilds the store error a server reported
func remoteError(resp *common.Message) error {
	code := store.RetCode(resp.Code)
	if code == store.RetCSuccess {
		// an error without a code, e.g. an unknown shard on an older server
		code = store.RetCInternalError
	}
	return store.NewError(code, fmt.Sprintf("RPC server - %s", resp.Err))
}
