package base

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/transport"
	retry "github.com/avast/retry-go/v5"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

// initialBackoff is the delay before the first retry, it doubles with every attempt (plus jitter)
const initialBackoff = 50 * time.Millisecond

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// session is one established net connection with its own reader goroutine.
// A broken session is never reused, the owning clientConnection dials a new one.
type session struct {
	conn    net.Conn
	writeMu sync.Mutex
	pending *xsync.MapOf[uint64, chan responseResult]
	done    chan struct{} // closed when the reader goroutine exits
}

// clientConnection is one slot of the round-robin pool, bound to an endpoint
type clientConnection struct {
	endpoint string
	parent   *clientTransport

	mu   sync.Mutex // protects sess
	sess *session
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex atomic.Uint64 // Round Robin
	nextRequestID atomic.Uint64 // unique request IDs
	stopping      atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.closeConnections()

	t.config = config
	t.stopping.Store(false)

	connectionsPerEP := max(config.Transport.ConnectionsPerEndpoint, 1)
	connections := make([]*clientConnection, 0, len(config.Transport.Endpoints)*connectionsPerEP)
	connected := 0

	for _, endpoint := range config.Transport.Endpoints {
		for i := 0; i < connectionsPerEP; i++ {
			clientConn := &clientConnection{
				endpoint: endpoint,
				parent:   t,
			}
			// failed slots stay in the pool and are dialed again on first use
			connections = append(connections, clientConn)

			if _, err := clientConn.current(); err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}
			connected++
			Logger.Debugf("Connected to %s (connection %d/%d)", endpoint, i+1, connectionsPerEP)
		}
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	if connected == 0 {
		t.closeConnections()
		return fmt.Errorf("failed to connect to any endpoint: %w", transport.ErrNoConnection)
	}

	Logger.Infof("Connected %d out of %d connections to %d endpoints using %s transport",
		connected, len(connections), len(config.Transport.Endpoints), t.connector.GetName())

	return nil
}

func (t *clientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	if t.stopping.Load() {
		return nil, transport.ErrClosed
	}

	// We always try at least once
	attempts := max(t.config.Transport.RetryCount, 1)

	resp, err := retry.NewWithData[[]byte](
		retry.Attempts(uint(attempts)),
		retry.Delay(initialBackoff),
		retry.LastErrorOnly(true),
		retry.RetryIf(transport.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			Logger.Debugf("Request attempt %d/%d failed: %v", n+1, attempts, err)
		}),
	).Do(func() ([]byte, error) {
		conn := t.getNextConnection()
		if conn == nil {
			return nil, transport.ErrNoConnection
		}
		// every attempt gets its own ID, a late response of a failed attempt is dropped
		return conn.roundTrip(shardId, t.nextRequestID.Add(1), req)
	})
	if err != nil {
		return nil, fmt.Errorf("%s request to shard %d failed: %w", t.connector.GetName(), shardId, err)
	}
	return resp, nil
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	switch len(t.connections) {
	case 0:
		return nil
	case 1:
		return t.connections[0]
	default:
		index := t.nextConnIndex.Add(1) % uint64(len(t.connections))
		return t.connections[index]
	}
}

// closeConnections closes all active connections and waits for their readers to exit
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	connections := t.connections
	t.connections = nil
	t.connectionsMu.Unlock()

	for _, conn := range connections {
		conn.close()
	}
}

// current returns the current session of the slot, dialing a new one if there is none
func (c *clientConnection) current() (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil {
		return c.sess, nil
	}
	if c.parent.stopping.Load() {
		return nil, transport.ErrClosed
	}

	conn, err := c.parent.connector.Connect(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}

	sess := &session{
		conn:    conn,
		pending: xsync.NewMapOf[uint64, chan responseResult](),
		done:    make(chan struct{}),
	}
	c.sess = sess
	go c.readResponses(sess)
	return sess, nil
}

// roundTrip sends one request on the slot's session and waits for the matching response
func (c *clientConnection) roundTrip(shardID, requestID uint64, req []byte) ([]byte, error) {
	sess, err := c.current()
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(c.parent.config.TimeoutSecond) * time.Second

	// registered before writing, so a fast response is never missed
	respCh := make(chan responseResult, 1)
	sess.pending.Store(requestID, respCh)
	defer sess.pending.Delete(requestID)

	sess.writeMu.Lock()
	if timeout > 0 {
		_ = sess.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	err = writeFrame(sess.conn, shardID, requestID, req)
	sess.writeMu.Unlock()

	if err != nil {
		// nothing was acknowledged, the request can be retried on a fresh session
		c.drop(sess)
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timeoutCh:
		return nil, transport.ErrTimeout
	}
}

// readResponses reads responses in a loop and distributes them to waiting requests.
// It exits when the connection breaks, failing every request still in flight.
func (c *clientConnection) readResponses(sess *session) {
	defer close(sess.done)

	for {
		shardID, requestID, data, err := readFrame(sess.conn, nil)
		if err != nil {
			if !c.parent.stopping.Load() {
				Logger.Warningf("Connection to %s lost: %v", c.endpoint, err)
			}
			c.drop(sess)

			// the conn is closed now, so requests registered from here on fail on write
			sess.pending.Range(func(id uint64, _ chan responseResult) bool {
				if ch, ok := sess.pending.LoadAndDelete(id); ok {
					ch <- responseResult{err: fmt.Errorf("%w: %v", transport.ErrConnectionLost, err)}
				}
				return true
			})
			return
		}

		respCh, found := sess.pending.LoadAndDelete(requestID)
		if !found {
			// the request already timed out
			Logger.Warningf("Received response for unknown request ID %d with shard ID %d", requestID, shardID)
			continue
		}
		respCh <- responseResult{data: data}
	}
}

// drop closes the session and detaches it from the slot if it is still the current one
func (c *clientConnection) drop(sess *session) {
	c.mu.Lock()
	if c.sess == sess {
		c.sess = nil
	}
	c.mu.Unlock()
	_ = sess.conn.Close()
}

// close drops the current session and waits for its reader goroutine
func (c *clientConnection) close() {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()

	if sess != nil {
		_ = sess.conn.Close()
		<-sess.done
	}
}
