package lockmgr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatToken(t *testing.T) {
	assert.Equal(t, "1760000000", string(FormatToken(time.Unix(1760000000, 0))))
	assert.Equal(t, "1760000000.25", string(FormatToken(time.Unix(1760000000, 250_000_000))))
}

func TestTokenExpiry(t *testing.T) {
	expiry := time.Unix(1760000000, 500_000_000)
	assert.Equal(t, expiry, TokenExpiry(FormatToken(expiry)))
	assert.Equal(t, time.Unix(0, 0), TokenExpiry([]byte("garbage")))
	assert.Equal(t, time.Unix(0, 0), TokenExpiry([]byte("Inf")))
}

func TestExpired(t *testing.T) {
	now := time.Unix(1000, 0)
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"in the future", "1001", false},
		{"exactly now", "1000", false},
		{"in the past", "999.5", true},
		{"unparseable", "not-a-number", true},
		{"empty", "", true},
		{"not a number", "NaN", true},
		{"positive infinity", "Inf", true},
		{"spelled out infinity", "+Infinity", true},
		{"negative infinity", "-Inf", true},
		{"surrounding whitespace", " 1001\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expired([]byte(tt.token), now))
		})
	}
}

func TestSleepCtx(t *testing.T) {
	require.NoError(t, sleepCtx(context.Background(), time.Millisecond))
	require.NoError(t, sleepCtx(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, sleepCtx(ctx, 0), context.Canceled)
}

func TestResourceKey(t *testing.T) {
	assert.Equal(t, Key("orders:42:_lock"), ResourceKey("orders", "42"))
	assert.Equal(t, Key("_lock"), ResourceKey())
	assert.Equal(t, "raw", Key("raw").LockKey())
}

func TestOutcome(t *testing.T) {
	assert.True(t, OutcomeAcquired.Acquired())
	assert.True(t, OutcomeStolen.Acquired())
	assert.False(t, OutcomeAbandoned.Acquired())

	assert.Equal(t, "acquired", OutcomeAcquired.String())
	assert.Equal(t, "stolen", OutcomeStolen.String())
	assert.Equal(t, "abandoned", OutcomeAbandoned.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
