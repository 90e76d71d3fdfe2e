// Package lockmgr implements a lease based, best-effort distributed mutex on top of
// any store implementing the store.IStore interface.
//
// The lock manager only ever stores in the provided IStore and has no other internal
// state than the lock key. It is therefore safe to create it multiple times for the same
// resource, in the same or in different processes.
//
// Lock Tokens:
//
//	The value stored under the lock key is the expiry of the lease as floating point
//	seconds since the Unix epoch (e.g. "1760000000.25"). It carries no owner identity.
//	A token whose expiry lies strictly before the local clock is expired. A token that
//	cannot be parsed counts as expired.
//
// Acquisition:
//
//	1. SetIfUnset(key, now+lease). If written, the lock is held (OutcomeAcquired).
//	2. Get(key).
//	   - absent: the holder released in between, go to 1 without sleeping.
//	   - live token: sleep for the wait interval, go to 1.
//	   - expired token: GetSet(key, now+lease) and inspect the value it replaced.
//	     Absent or still expired: the lock is held (OutcomeAcquired / OutcomeStolen).
//	     Live: somebody else renewed the lock first, the attempt is abandoned
//	     (OutcomeAbandoned, no error).
//
//	There is no attempt limit. The sleep is the only blocking point and the only place
//	where the context is observed, so a cancelled context ends the wait.
//
// Release:
//
//	Release deletes the key unconditionally. A caller whose lease expired and was stolen
//	will delete the new holder's token when it releases. Keep leases longer than the
//	critical section.
//
// Guarantees:
//
//	Mutual exclusion holds as long as SetIfUnset and GetSet are atomic in the store,
//	the lease outlasts the critical section and the callers' clocks are roughly in sync.
//	There are no fencing tokens.
//
// Usage Example:
//
//	lm := lockmgr.NewLockManager(s, lockmgr.ResourceKey("orders", "42"),
//		lockmgr.WithLeaseDuration(5*time.Second))
//
//	err := lm.Mutex(ctx, 100*time.Millisecond, func() error {
//		return processOrder(42)
//	})
//	if errors.Is(err, lockmgr.ErrNotAcquired) {
//		// lost a steal race, try again later
//	}
package lockmgr
