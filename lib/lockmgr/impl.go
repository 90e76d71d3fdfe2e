package lockmgr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("lockmgr")

type lockMgrImpl struct {
	store   store.IStore
	key     string
	lease   time.Duration
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	metrics *Metrics
}

// NewLockManager creates a lock manager for the resource in the given store.
// The manager keeps no state besides the lock key, any number of managers
// (in any number of processes) may be created for the same resource.
func NewLockManager(s store.IStore, resource Resource, opts ...Option) ILockManager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &lockMgrImpl{
		store:   s,
		key:     resource.LockKey(),
		lease:   o.lease,
		now:     o.clock,
		sleep:   sleepCtx,
		metrics: o.metrics,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see lockmgr/interface.go)
// --------------------------------------------------------------------------

func (lm *lockMgrImpl) Key() string {
	return lm.key
}

func (lm *lockMgrImpl) Acquire(ctx context.Context, wait time.Duration) (Outcome, error) {
	start := time.Now()
	outcome, err := lm.acquire(ctx, wait)
	lm.metrics.observeAcquire(outcome, err, start)
	return outcome, err
}

func (lm *lockMgrImpl) acquire(ctx context.Context, wait time.Duration) (Outcome, error) {
	for {
		written, err := lm.store.SetIfUnset(lm.key, lm.newToken())
		if err != nil {
			return OutcomeAbandoned, fmt.Errorf("lock %s: set-if-unset: %w", lm.key, err)
		}
		if written {
			return OutcomeAcquired, nil
		}

		current, ok, err := lm.store.Get(lm.key)
		if err != nil {
			return OutcomeAbandoned, fmt.Errorf("lock %s: get: %w", lm.key, err)
		}
		if !ok {
			// released between set-if-unset and get
			continue
		}

		if !expired(current, lm.now()) {
			lm.metrics.waits.Inc()
			log.Debugf("lock %s is held until %s, waiting %s", lm.key, current, wait)
			if err := lm.sleep(ctx, wait); err != nil {
				return OutcomeAbandoned, err
			}
			continue
		}

		previous, ok, err := lm.store.GetSet(lm.key, lm.newToken())
		if err != nil {
			return OutcomeAbandoned, fmt.Errorf("lock %s: get-set: %w", lm.key, err)
		}
		if !ok {
			// released between get and swap, our token is in place
			return OutcomeAcquired, nil
		}
		if expired(previous, lm.now()) {
			log.Debugf("lock %s: stole expired token %s", lm.key, previous)
			return OutcomeStolen, nil
		}
		log.Warningf("lock %s: token was renewed to %s before the swap, giving up", lm.key, previous)
		return OutcomeAbandoned, nil
	}
}

func (lm *lockMgrImpl) Release() error {
	lm.metrics.releases.Inc()
	if err := lm.store.Delete(lm.key); err != nil {
		return fmt.Errorf("lock %s: delete: %w", lm.key, err)
	}
	return nil
}

func (lm *lockMgrImpl) Mutex(ctx context.Context, wait time.Duration, fn func() error) (err error) {
	outcome, err := lm.Acquire(ctx, wait)
	if err != nil {
		return err
	}
	if !outcome.Acquired() {
		return fmt.Errorf("lock %s: %w", lm.key, ErrNotAcquired)
	}

	defer func() {
		if releaseErr := lm.Release(); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
	}()
	return fn()
}

// newToken returns the token for a lease starting now
func (lm *lockMgrImpl) newToken() []byte {
	return FormatToken(lm.now().Add(lm.lease))
}
