package estore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/stretchr/testify/assert"
	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want store.RetCode
	}{
		{"deadline", context.DeadlineExceeded, store.RetCUnavailable},
		{"wrapped deadline", fmt.Errorf("txn: %w", context.DeadlineExceeded), store.RetCUnavailable},
		{"no endpoints", clientv3.ErrNoAvailableEndpoints, store.RetCUnavailable},
		{"no leader", rpctypes.ErrNoLeader, store.RetCUnavailable},
		{"grpc unavailable", status.Error(codes.Unavailable, "connection refused"), store.RetCUnavailable},
		{"permission denied", rpctypes.ErrPermissionDenied, store.RetCInternalError},
		{"other", errors.New("boom"), store.RetCInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.CodeOf(toStoreError("get", "k", tt.err)))
		})
	}
}

func TestKeyPrefix(t *testing.T) {
	s := NewEtcdStore(nil, "dlock/", 0).(*storeImpl)
	assert.Equal(t, "dlock/orders:_lock", s.key("orders:_lock"))

	bare := NewEtcdStore(nil, "", 0).(*storeImpl)
	assert.Equal(t, "orders:_lock", bare.key("orders:_lock"))
}
