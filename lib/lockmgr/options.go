package lockmgr

import "time"

// DefaultLeaseDuration is the time to live of a freshly written token
const DefaultLeaseDuration = time.Second

type options struct {
	lease   time.Duration
	clock   func() time.Time
	metrics *Metrics
}

// Option configures a lock manager
type Option func(*options)

// WithLeaseDuration sets the lease written with every token. Values <= 0 keep the default.
func WithLeaseDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lease = d
		}
	}
}

// WithClock replaces time.Now as source of the current time.
// The clock is used for new tokens and for judging whether a token expired.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithMetrics records acquisitions in m instead of DefaultMetrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

func defaultOptions() *options {
	return &options{
		lease:   DefaultLeaseDuration,
		clock:   time.Now,
		metrics: DefaultMetrics,
	}
}
