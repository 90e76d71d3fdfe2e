package client

import (
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a shard ID, a config, a transport and a serializer as parameters.
// The transport is connected with config before the store is returned.
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {

	if err := transport.Connect(config); err != nil {
		return nil, store.Errorf(store.RetCUnavailable, "RPC client - %v", err)
	}

	return &rpcStore{
		rpcClientAdapter{
			shardId:    shardId,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) SetIfUnset(key string, value []byte) (written bool, err error) {
	resp, err := i.invokeRPCRequest(common.NewSetIfUnsetRequest(key, value))
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcStore) Get(key string) (value []byte, loaded bool, err error) {
	resp, err := i.invokeRPCRequest(common.NewGetRequest(key))
	if err != nil {
		return nil, false, err
	}
	return presentValue(resp), resp.Ok, nil
}

func (i *rpcStore) GetSet(key string, value []byte) (previous []byte, loaded bool, err error) {
	resp, err := i.invokeRPCRequest(common.NewGetSetRequest(key, value))
	if err != nil {
		return nil, false, err
	}
	return presentValue(resp), resp.Ok, nil
}

func (i *rpcStore) Delete(key string) (err error) {
	_, err = i.invokeRPCRequest(common.NewDeleteRequest(key))
	return err
}

// presentValue returns the value of a response, a present value is never nil
// even if the serializer dropped an empty slice
func presentValue(resp *common.Message) []byte {
	if resp.Ok && resp.Value == nil {
		return []byte{}
	}
	if !resp.Ok {
		return nil
	}
	return resp.Value
}
