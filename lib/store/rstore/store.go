package rstore

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/redis/go-redis/v9"
)

var log = logger.GetLogger("store")

// storeImpl implements store.IStore on top of a Redis server (or cluster).
// Every primitive maps onto a single Redis command, which Redis executes atomically.
type storeImpl struct {
	client  redis.UniversalClient
	timeout time.Duration
}

// NewRedisStore creates a store that keeps lock tokens in Redis.
// The timeout bounds every single command, zero means no additional bound.
func NewRedisStore(client redis.UniversalClient, timeout time.Duration) store.IStore {
	return &storeImpl{
		client:  client,
		timeout: timeout,
	}
}

func (s *storeImpl) ctx() (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), s.timeout)
}

// toStoreError maps go-redis failures onto store error codes.
// Connection level failures become RetCUnavailable, everything the server answered becomes RetCInternalError.
func toStoreError(op, key string, err error) error {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, io.EOF),
		errors.Is(err, redis.ErrClosed),
		errors.Is(err, context.DeadlineExceeded):
		log.Warningf("redis %s %q: store unavailable: %v", op, key, err)
		return store.Errorf(store.RetCUnavailable, "redis %s: %v", op, err)
	default:
		return store.Errorf(store.RetCInternalError, "redis %s: %v", op, err)
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) SetIfUnset(key string, value []byte) (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	written, err := s.client.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, toStoreError("SETNX", key, err)
	}
	return written, nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, toStoreError("GET", key, err)
	}
	return value, true, nil
}

func (s *storeImpl) GetSet(key string, value []byte) ([]byte, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	prev, err := s.client.GetSet(ctx, key, value).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, toStoreError("GETSET", key, err)
	}
	return prev, true, nil
}

func (s *storeImpl) Delete(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return toStoreError("DEL", key, err)
	}
	return nil
}
