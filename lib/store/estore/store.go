package estore

import (
	"context"
	"errors"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var log = logger.GetLogger("store")

// storeImpl implements store.IStore on top of etcd v3.
type storeImpl struct {
	kv      clientv3.KV
	prefix  string
	timeout time.Duration
}

// NewEtcdStore creates a store that keeps lock tokens in etcd under the given key prefix.
// kv is usually a *clientv3.Client. The timeout bounds every single request.
func NewEtcdStore(kv clientv3.KV, prefix string, timeout time.Duration) store.IStore {
	return &storeImpl{
		kv:      kv,
		prefix:  prefix,
		timeout: timeout,
	}
}

func (s *storeImpl) key(key string) string {
	return s.prefix + key
}

func (s *storeImpl) ctx() (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), s.timeout)
}

// isUnavailable reports whether err means the etcd cluster could not serve the request
func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, clientv3.ErrNoAvailableEndpoints) ||
		errors.Is(err, rpctypes.ErrNoLeader) ||
		errors.Is(err, rpctypes.ErrTimeout) ||
		errors.Is(err, rpctypes.ErrTimeoutDueToConnectionLost) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return true
	}
	return false
}

// toStoreError maps etcd client failures onto store error codes
func toStoreError(op, key string, err error) error {
	if isUnavailable(err) {
		log.Warningf("etcd %s %q: store unavailable: %v", op, key, err)
		return store.Errorf(store.RetCUnavailable, "etcd %s: %v", op, err)
	}
	return store.Errorf(store.RetCInternalError, "etcd %s: %v", op, err)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

// SetIfUnset writes the key in a transaction guarded by CreateRevision == 0,
// which only holds while the key does not exist.
func (s *storeImpl) SetIfUnset(key string, value []byte) (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	k := s.key(key)
	resp, err := s.kv.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(k), "=", 0)).
		Then(clientv3.OpPut(k, string(value))).
		Commit()
	if err != nil {
		return false, toStoreError("txn", key, err)
	}
	return resp.Succeeded, nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	resp, err := s.kv.Get(ctx, s.key(key))
	if err != nil {
		return nil, false, toStoreError("get", key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, false, nil
	}
	return resp.Kvs[0].Value, true, nil
}

// GetSet is a single Put that asks etcd to return the replaced key value pair.
func (s *storeImpl) GetSet(key string, value []byte) ([]byte, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	resp, err := s.kv.Put(ctx, s.key(key), string(value), clientv3.WithPrevKV())
	if err != nil {
		return nil, false, toStoreError("put", key, err)
	}
	if resp.PrevKv == nil {
		return nil, false, nil
	}
	return resp.PrevKv.Value, true, nil
}

func (s *storeImpl) Delete(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	if _, err := s.kv.Delete(ctx, s.key(key)); err != nil {
		return toStoreError("delete", key, err)
	}
	return nil
}
