package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/transport"
	retry "github.com/avast/retry-go/v5"
)

// initialBackoff is the delay before the first retry
const initialBackoff = 50 * time.Millisecond

// NewHttpClientTransport creates a client transport that posts requests to {endpoint}/{shardId}
func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	serverURLs []*url.URL
	client     *http.Client
	counter    atomic.Uint32
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	parsedURLs := make([]*url.URL, len(config.Transport.Endpoints))
	for i, server := range config.Transport.Endpoints {
		// host:port is accepted as shorthand for http://host:port
		if !strings.Contains(server, "://") {
			server = "http://" + server
		}
		parsedURL, err := url.Parse(server)
		if err != nil {
			return err
		}
		parsedURLs[i] = parsedURL
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second
	t.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: max(config.Transport.ConnectionsPerEndpoint, 10),
			IdleConnTimeout:     90 * time.Second,
		},
	}
	t.serverURLs = parsedURLs
	t.counter.Store(0)
	t.retryCount = config.Transport.RetryCount

	return nil
}

func (t *httpClientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	if t.client == nil {
		return nil, transport.ErrClosed
	}

	attempts := max(t.retryCount, 1)

	resp, err := retry.NewWithData[[]byte](
		retry.Attempts(uint(attempts)),
		retry.Delay(initialBackoff),
		retry.LastErrorOnly(true),
		retry.RetryIf(transport.IsRetryable),
	).Do(func() ([]byte, error) {
		return t.post(shardId, req)
	})
	if err != nil {
		return nil, fmt.Errorf("http request to shard %d failed: %w", shardId, err)
	}
	return resp, nil
}

func (t *httpClientTransport) Close() error {
	if t.client != nil {
		t.client.CloseIdleConnections()
	}

	t.client = nil
	t.serverURLs = nil

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// post sends one request to the next server (round-robin).
// Errors after the request was written are mapped to the non retryable transport errors.
func (t *httpClientTransport) post(shardId uint64, req []byte) ([]byte, error) {
	idx := t.counter.Add(1) % uint32(len(t.serverURLs))
	requestURL := t.serverURLs[idx].JoinPath(fmt.Sprintf("%d", shardId))

	// a new request per attempt, the body reader is consumed by each send
	httpRequest, err := http.NewRequest(http.MethodPost, requestURL.String(), bytes.NewReader(req))
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set("Content-Type", "application/octet-stream")

	httpResponse, err := t.client.Do(httpRequest)
	if err != nil {
		if isDialError(err) {
			return nil, err
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", transport.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", transport.ErrConnectionLost, err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http error: %s", transport.ErrConnectionLost, httpResponse.Status)
	}

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transport.ErrConnectionLost, err)
	}
	return body, nil
}

// isDialError reports whether err happened before a connection to the server existed
func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
