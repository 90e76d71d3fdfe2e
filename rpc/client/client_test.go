package client_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/storetest"
	"github.com/ValentinKolb/dLock/rpc/client"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/server"
	"github.com/ValentinKolb/dLock/rpc/transport"
	httpTransport "github.com/ValentinKolb/dLock/rpc/transport/http"
	"github.com/ValentinKolb/dLock/rpc/transport/tcp"
	"github.com/ValentinKolb/dLock/rpc/transport/unix"
	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShard = 1

type transportCase struct {
	name   string
	server func() transport.IRPCServerTransport
	client func() transport.IRPCClientTransport
	// endpoint returns a fresh listen address for one server
	endpoint func(t *testing.T) string
}

var transports = []transportCase{
	{"tcp", tcp.NewTCPServerTransport, tcp.NewTCPClientTransport, freeTCPAddr},
	{"unix", unix.NewUnixServerTransport, unix.NewUnixClientTransport, socketPath},
	{"http", httpTransport.NewHttpServerTransport, httpTransport.NewHttpClientTransport, freeTCPAddr},
}

func freeTCPAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// socketPath keeps the path short, unix socket paths are limited to about 100 bytes
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "dlock")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "rpc.sock")
}

// startServer serves one local shard and stops the server when the test ends
func startServer(t *testing.T, tc transportCase) (server.IRPCServer, string) {
	t.Helper()
	return startServerWith(t, tc, serializer.NewBinarySerializer())
}

func startServerWith(t *testing.T, tc transportCase, ser serializer.IRPCSerializer) (server.IRPCServer, string) {
	t.Helper()
	endpoint := tc.endpoint(t)

	config := common.ServerConfig{
		Shards:        []common.ServerShard{{ShardID: testShard, Type: common.ShardTypeLocalStore}},
		TimeoutSecond: 5,
		LogLevel:      "info",
		Transport: common.ServerTransportConfig{
			Endpoint:       endpoint,
			WorkersPerConn: 4,
			TCPConf:        common.TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
	}
	srv := server.NewRPCServer(config, tc.server(), ser)

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()
	t.Cleanup(func() {
		assert.NoError(t, srv.Close())
		assert.NoError(t, <-served)
	})

	network := "tcp"
	if tc.name == "unix" {
		network = "unix"
	}
	require.Eventually(t, func() bool {
		conn, err := net.Dial(network, endpoint)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond, "server did not come up on %s", endpoint)

	return srv, endpoint
}

func clientConfig(endpoint string) common.ClientConfig {
	return common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{endpoint},
			RetryCount:             3,
			ConnectionsPerEndpoint: 2,
			TCPConf:                common.TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
	}
}

func newClient(t *testing.T, tc transportCase, endpoint string) store.IStore {
	t.Helper()
	cliTransport := tc.client()
	s, err := client.NewRPCStore(testShard, clientConfig(endpoint), cliTransport, serializer.NewBinarySerializer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cliTransport.Close() })
	return s
}

// --------------------------------------------------------------------------
// Store contract over RPC
// --------------------------------------------------------------------------

func TestRPCStore(t *testing.T) {
	for _, tc := range transports {
		storetest.RunStoreTests(t, tc.name, func(t *testing.T) store.IStore {
			_, endpoint := startServer(t, tc)
			return newClient(t, tc, endpoint)
		})
	}
}

func TestRPCStoreSerializers(t *testing.T) {
	tc := transports[0]
	for _, name := range []string{"json", "gob", "binary"} {
		t.Run(name, func(t *testing.T) {
			ser, err := serializer.ByName(name)
			require.NoError(t, err)
			_, endpoint := startServerWith(t, tc, ser)

			cliTransport := tc.client()
			defer cliTransport.Close()
			s, err := client.NewRPCStore(testShard, clientConfig(endpoint), cliTransport, ser)
			require.NoError(t, err)

			written, err := s.SetIfUnset("k", []byte{})
			require.NoError(t, err)
			assert.True(t, written)

			value, ok, err := s.Get("k")
			require.NoError(t, err)
			assert.True(t, ok, "an empty value is still present")
			assert.Equal(t, []byte{}, value)
		})
	}
}

func TestUnknownShard(t *testing.T) {
	tc := transports[0]
	_, endpoint := startServer(t, tc)

	cliTransport := tc.client()
	defer cliTransport.Close()
	s, err := client.NewRPCStore(99, clientConfig(endpoint), cliTransport, serializer.NewBinarySerializer())
	require.NoError(t, err)

	_, _, err = s.Get("k")
	require.Error(t, err)
	assert.Equal(t, store.RetCInvalidOperation, store.CodeOf(err))
	assert.False(t, store.IsUnavailable(err))
}

func TestConnectWithoutServer(t *testing.T) {
	tc := transports[0]
	_, err := client.NewRPCStore(testShard, clientConfig(freeTCPAddr(t)), tc.client(), serializer.NewBinarySerializer())
	require.Error(t, err)
	assert.True(t, store.IsUnavailable(err))
}

func TestServerGoneIsUnavailable(t *testing.T) {
	for _, tc := range transports {
		t.Run(tc.name, func(t *testing.T) {
			srv, endpoint := startServer(t, tc)
			s := newClient(t, tc, endpoint)

			written, err := s.SetIfUnset("k", []byte("v"))
			require.NoError(t, err)
			require.True(t, written)

			require.NoError(t, srv.Close())

			_, _, err = s.Get("k")
			require.Error(t, err)
			assert.True(t, store.IsUnavailable(err), "got %v", err)
		})
	}
}

// --------------------------------------------------------------------------
// Lock manager over RPC
// --------------------------------------------------------------------------

func TestLockManagerOverRPC(t *testing.T) {
	for _, tc := range transports {
		t.Run(tc.name, func(t *testing.T) {
			_, endpoint := startServer(t, tc)

			const (
				workers    = 4
				iterations = 5
			)
			var (
				wg      sync.WaitGroup
				inside  atomic.Int32
				overlap atomic.Bool
				counter atomic.Int32
			)

			resource := lockmgr.ResourceKey("orders", tc.name)
			for i := 0; i < workers; i++ {
				// every worker has its own connection, like separate processes would
				lm := lockmgr.NewLockManager(newClient(t, tc, endpoint), resource,
					lockmgr.WithMetrics(lockmgr.NewMetrics(metrics.NewSet())))

				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < iterations; j++ {
						err := lm.Mutex(context.Background(), 5*time.Millisecond, func() error {
							if inside.Add(1) > 1 {
								overlap.Store(true)
							}
							counter.Add(1)
							time.Sleep(time.Millisecond)
							inside.Add(-1)
							return nil
						})
						assert.NoError(t, err)
					}
				}()
			}
			wg.Wait()

			assert.False(t, overlap.Load(), "two holders inside the critical section")
			assert.Equal(t, int32(workers*iterations), counter.Load())

			_, held, err := newClient(t, tc, endpoint).Get(resource.LockKey())
			require.NoError(t, err)
			assert.False(t, held, "lock must be released")
		})
	}
}

func TestLockManagerStoreFailure(t *testing.T) {
	tc := transports[0]
	srv, endpoint := startServer(t, tc)
	lm := lockmgr.NewLockManager(newClient(t, tc, endpoint), lockmgr.Key("gone"),
		lockmgr.WithMetrics(lockmgr.NewMetrics(metrics.NewSet())))

	require.NoError(t, srv.Close())

	ran := false
	err := lm.Mutex(context.Background(), time.Millisecond, func() error {
		ran = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, ran)
	assert.True(t, store.IsUnavailable(err), "got %v", err)
	assert.False(t, errors.Is(err, lockmgr.ErrNotAcquired))
}

// --------------------------------------------------------------------------
// HTTP side endpoints
// --------------------------------------------------------------------------

func TestHTTPHealthAndMetrics(t *testing.T) {
	tc := transports[2]
	_, endpoint := startServer(t, tc)

	// one request, so the request counter exists
	_, _, err := newClient(t, tc, endpoint).Get("k")
	require.NoError(t, err)

	resp, err := http.Get("http://" + endpoint + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body [64]byte
	n, _ := resp.Body.Read(body[:])
	assert.Equal(t, "ok\n", string(body[:n]))

	mresp, err := http.Get("http://" + endpoint + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	assert.Equal(t, http.StatusOK, mresp.StatusCode)

	var sb []byte
	buf := make([]byte, 4096)
	for {
		n, err := mresp.Body.Read(buf)
		sb = append(sb, buf[:n]...)
		if err != nil {
			break
		}
	}
	assert.Contains(t, string(sb), `dlock_rpc_requests_total{type="get"}`)
}
