//go:build integration

package estore

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Integration tests need a real etcd.
// Run with: go test -tags=integration ./lib/store/estore/...
//
// ETCD_ENDPOINTS (comma separated) points the tests at an existing cluster,
// otherwise an etcd container is started.

func setupEtcd(t *testing.T) *clientv3.Client {
	t.Helper()

	if endpoints := os.Getenv("ETCD_ENDPOINTS"); endpoints != "" {
		return connect(t, strings.Split(endpoints, ","))
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "quay.io/coreos/etcd:v3.5.17",
			ExposedPorts: []string{"2379/tcp"},
			Cmd: []string{
				"etcd",
				"--advertise-client-urls=http://0.0.0.0:2379",
				"--listen-client-urls=http://0.0.0.0:2379",
			},
			WaitingFor: wait.ForLog("ready to serve client requests"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("etcd container not available: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return connect(t, []string{"http://" + endpoint})
}

func connect(t *testing.T, endpoints []string) *clientv3.Client {
	t.Helper()
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Skipf("cannot connect to etcd %v: %v", endpoints, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Status(ctx, endpoints[0]); err != nil {
		_ = client.Close()
		t.Skipf("etcd health check failed %v: %v", endpoints, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestIntegration_EtcdStore(t *testing.T) {
	client := setupEtcd(t)
	run := time.Now().UnixNano()

	n := 0
	storetest.RunStoreTests(t, "EtcdStore", func(t *testing.T) store.IStore {
		n++
		prefix := fmt.Sprintf("dlock-test/%d/%d/", run, n)
		t.Cleanup(func() {
			_, _ = client.Delete(context.Background(), prefix, clientv3.WithPrefix())
		})
		return NewEtcdStore(client, prefix, 5*time.Second)
	})
}

func TestIntegration_PrefixIsolation(t *testing.T) {
	client := setupEtcd(t)
	prefix := fmt.Sprintf("dlock-test/%d/", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = client.Delete(context.Background(), prefix, clientv3.WithPrefix())
	})

	a := NewEtcdStore(client, prefix+"a/", 5*time.Second)
	b := NewEtcdStore(client, prefix+"b/", 5*time.Second)

	written, err := a.SetIfUnset("res:_lock", []byte("1"))
	require.NoError(t, err)
	require.True(t, written)

	written, err = b.SetIfUnset("res:_lock", []byte("2"))
	require.NoError(t, err)
	assert.True(t, written, "stores with different prefixes must not share keys")

	resp, err := client.Get(context.Background(), prefix+"a/res:_lock")
	require.NoError(t, err)
	require.Len(t, resp.Kvs, 1)
	assert.Equal(t, "1", string(resp.Kvs[0].Value))
}
