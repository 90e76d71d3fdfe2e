package lockmgr

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotAcquired is returned by Mutex when the acquisition was abandoned after a lost steal race.
var ErrNotAcquired = errors.New("lockmgr: lock not acquired")

// ILockManager defines the interface of a lease lock on a single lock key.
type ILockManager interface {
	// Acquire blocks until the lock is held or the attempt is abandoned.
	// While another caller holds a live lease, Acquire sleeps for wait between attempts.
	// A cancelled context ends the wait with OutcomeAbandoned and the context's error.
	// Store failures are returned immediately and never retried.
	Acquire(ctx context.Context, wait time.Duration) (outcome Outcome, err error)

	// Release deletes the lock key, no matter who wrote the current token.
	// Releasing an absent lock is a no-op.
	Release() (err error)

	// Mutex acquires the lock, runs fn and releases the lock on every exit path of fn,
	// including a panic. If the acquisition is abandoned fn is not run and ErrNotAcquired
	// is returned. The error of fn is returned unchanged, a release error is joined to it.
	Mutex(ctx context.Context, wait time.Duration, fn func() error) (err error)

	// Key returns the lock key in the store.
	Key() string
}

// --------------------------------------------------------------------------
// Lock Identity
// --------------------------------------------------------------------------

// Resource is anything that can be protected by a lock.
// LockKey must be stable for the lifetime of the resource.
type Resource interface {
	LockKey() string
}

// Key is a Resource that uses the string as lock key verbatim.
type Key string

func (k Key) LockKey() string { return string(k) }

// lockSuffix is appended to every key built by ResourceKey
const lockSuffix = "_lock"

// ResourceKey builds the lock key of a resource from its identity,
// e.g. ResourceKey("orders", "42") is "orders:42:_lock".
func ResourceKey(parts ...string) Key {
	return Key(strings.Join(append(parts, lockSuffix), ":"))
}

// --------------------------------------------------------------------------
// Outcome
// --------------------------------------------------------------------------

// Outcome is the terminal state of one Acquire call.
type Outcome uint8

const (
	OutcomeAbandoned Outcome = iota // A concurrent caller renewed the token between read and swap, the lock is not held.
	OutcomeAcquired                 // The key was free and set-if-absent won.
	OutcomeStolen                   // An expired token was swapped out.
)

// Acquired reports whether the lock is held after the call.
func (o Outcome) Acquired() bool {
	return o == OutcomeAcquired || o == OutcomeStolen
}

func (o Outcome) String() string {
	switch o {
	case OutcomeAbandoned:
		return "abandoned"
	case OutcomeAcquired:
		return "acquired"
	case OutcomeStolen:
		return "stolen"
	default:
		return "unknown"
	}
}
