package lockmgr

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Lock Tokens
// --------------------------------------------------------------------------

// unixSeconds converts t to floating point seconds since the Unix epoch
func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

// FormatToken renders the expiry instant as the token stored under the lock key,
// e.g. "1760000000.123456".
func FormatToken(expiry time.Time) []byte {
	return []byte(strconv.FormatFloat(unixSeconds(expiry), 'f', -1, 64))
}

// parseToken returns the expiry of a token in seconds since the epoch.
// A token that cannot be parsed counts as expired long ago, so do NaN and
// the infinities, which ParseFloat accepts but no clock ever reaches.
func parseToken(token []byte) float64 {
	expiry, err := strconv.ParseFloat(strings.TrimSpace(string(token)), 64)
	if err != nil || math.IsNaN(expiry) || math.IsInf(expiry, 0) {
		return 0
	}
	return expiry
}

// TokenExpiry returns the expiry instant encoded in a token.
// The zero Unix time is returned for tokens that cannot be parsed.
func TokenExpiry(token []byte) time.Time {
	sec := parseToken(token)
	whole := int64(sec)
	return time.Unix(whole, int64((sec-float64(whole))*float64(time.Second)))
}

// expired reports whether the token's expiry lies strictly before now
func expired(token []byte, now time.Time) bool {
	return parseToken(token) < unixSeconds(now)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// sleepCtx waits for d or until ctx is done, whichever comes first.
// It returns the context's error if the wait was cut short.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
