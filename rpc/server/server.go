package server

import (
	"errors"
	"fmt"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/dLock/lib/db"
	"github.com/ValentinKolb/dLock/lib/db/engines/maple"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/dstore"
	"github.com/ValentinKolb/dLock/lib/store/estore"
	"github.com/ValentinKolb/dLock/lib/store/lstore"
	"github.com/ValentinKolb/dLock/lib/store/rstore"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store it encapsulates and the adapter that handles requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) IRPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", config.String())

	return &rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]

	// closers release the store backends in reverse creation order
	closersMu sync.Mutex
	closers   []func() error
}

// --------------------------------------------------------------------------
// Interface Methods (docu see server.IRPCServer)
// --------------------------------------------------------------------------

// Serve starts the RPC server
// This function will also initialize the shards and start the transport layer
func (s *rpcServer) Serve() error {
	if err := s.init(); err != nil {
		return errors.Join(err, s.closeBackends())
	}
	s.transport.RegisterHandler(s.handle)
	return s.transport.Listen(s.config)
}

func (s *rpcServer) Close() error {
	return errors.Join(s.transport.Close(), s.closeBackends())
}

// --------------------------------------------------------------------------
// Request Handling
// --------------------------------------------------------------------------

// handle is the transport handler: decode, route to the shard adapter, encode
func (s *rpcServer) handle(shardId uint64, req []byte) []byte {
	var respMsg *common.Message

	shard, ok := s.shards.Load(shardId)
	if !ok {
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
		respMsg.Code = uint64(store.RetCInvalidOperation)
	} else {
		var msg common.Message
		if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
			respMsg.Code = uint64(store.RetCInvalidOperation)
		} else {
			respMsg = shard.Adapter.Handle(&msg, shard.Store)
		}
	}

	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response for shard %d: %v", shardId, err)
		// an error message only carries strings, every serializer can encode it
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

// --------------------------------------------------------------------------
// Shard Setup
// --------------------------------------------------------------------------

func (s *rpcServer) init() error {
	// Function to create a new database instance
	dbFactory := func() db.KVDB { return maple.NewMapleDB(nil) }

	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	var (
		nodeHost   *dragonboat.NodeHost
		redisCli   *redis.Client
		etcdClient *clientv3.Client
		err        error
	)

	// Only create the shared backends that are actually used by a shard
	if s.config.HasRaftShard() {
		nodeHost, err = dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		s.addCloser(func() error { nodeHost.Close(); return nil })
	}

	if s.config.HasShardType(common.ShardTypeRedisStore) {
		redisCli = redis.NewClient(&redis.Options{
			Addr:        s.config.RedisAddr,
			DialTimeout: timeout,
		})
		s.addCloser(redisCli.Close)
	}

	if s.config.HasShardType(common.ShardTypeEtcdStore) {
		etcdClient, err = clientv3.New(clientv3.Config{
			Endpoints:   s.config.EtcdEndpoints,
			DialTimeout: timeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create etcd client: %w", err)
		}
		s.addCloser(etcdClient.Close)
	}

	/*
		Note: A single RPC Server can serve any number of shards. Each shard is
		an independent store namespace, a lock key only ever lives in one shard.
		Shared backends (node host, redis, etcd) are reused by all shards of a type.
	*/

	for _, shardConfig := range s.config.Shards {
		var shardStore store.IStore

		switch shardConfig.Type {
		case common.ShardTypeLocalStore:
			shardStore = lstore.NewLocalStore(dbFactory)

		case common.ShardTypeDistributedStore:
			if err := nodeHost.StartConcurrentReplica(
				s.config.ClusterMembers,
				false,
				dstore.CreateStateMaschineFactory(dbFactory),
				s.config.ToDragonboatConfig(shardConfig.ShardID),
			); err != nil {
				return fmt.Errorf("failed to start shard %d: %w", shardConfig.ShardID, err)
			}
			shardStore = dstore.NewDistributedStore(nodeHost, shardConfig.ShardID, timeout)

		case common.ShardTypeRedisStore:
			shardStore = rstore.NewRedisStore(redisCli, timeout)

		case common.ShardTypeEtcdStore:
			// shards share the etcd cluster, the shard id keeps their keys apart
			prefix := fmt.Sprintf("%s%d/", s.config.EtcdPrefix, shardConfig.ShardID)
			shardStore = estore.NewEtcdStore(etcdClient, prefix, timeout)

		default:
			return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
		}

		s.shards.Store(shardConfig.ShardID, serverShard{
			Store:   shardStore,
			Adapter: NewIStoreServerAdapter(),
		})
		Logger.Infof("created %s for shard %d", shardConfig.Type, shardConfig.ShardID)
	}

	Logger.Infof("dLock setup completed successfully")
	return nil
}

func (s *rpcServer) addCloser(closer func() error) {
	s.closersMu.Lock()
	defer s.closersMu.Unlock()
	s.closers = append(s.closers, closer)
}

// closeBackends releases all backends created by init
func (s *rpcServer) closeBackends() error {
	s.closersMu.Lock()
	defer s.closersMu.Unlock()

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
