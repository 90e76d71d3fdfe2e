package server

import (
	"fmt"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// NewIStoreServerAdapter returns the adapter that maps the four store primitives onto an IStore
func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	resp := adapter.dispatch(req, s)

	metrics.GetOrCreateCounter(fmt.Sprintf(`dlock_rpc_requests_total{type=%q}`, req.MsgType)).Inc()
	if resp.Err != "" {
		metrics.GetOrCreateCounter(fmt.Sprintf(`dlock_rpc_errors_total{type=%q}`, req.MsgType)).Inc()
	}
	return resp
}

func (adapter *iStoreServerAdapterImpl) dispatch(req *common.Message, s store.IStore) *common.Message {
	switch req.MsgType {
	case common.MsgTKVSetIfUnset:
		written, err := s.SetIfUnset(req.Key, req.Value)
		return common.NewSetIfUnsetResponse(written, err)
	case common.MsgTKVGet:
		val, ok, err := s.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTKVGetSet:
		previous, ok, err := s.GetSet(req.Key, req.Value)
		return common.NewGetSetResponse(previous, ok, err)
	case common.MsgTKVDelete:
		err := s.Delete(req.Key)
		return common.NewDeleteResponse(err)
	default:
		resp := common.NewErrorResponse(
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
		resp.Code = uint64(store.RetCUnsupportedOperation)
		return resp
	}
}
