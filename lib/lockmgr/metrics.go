package lockmgr

import (
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics holds the counters of all lock managers sharing it.
type Metrics struct {
	acquired  *metrics.Counter
	stolen    *metrics.Counter
	abandoned *metrics.Counter
	failed    *metrics.Counter
	waits     *metrics.Counter
	releases  *metrics.Counter
	duration  *metrics.Histogram
}

// registry is implemented by *metrics.Set and by the global default set
type registry interface {
	NewCounter(name string) *metrics.Counter
	NewHistogram(name string) *metrics.Histogram
}

type defaultSet struct{}

func (defaultSet) NewCounter(name string) *metrics.Counter     { return metrics.NewCounter(name) }
func (defaultSet) NewHistogram(name string) *metrics.Histogram { return metrics.NewHistogram(name) }

// DefaultMetrics is registered in the global VictoriaMetrics set and
// ends up in metrics.WritePrometheus.
var DefaultMetrics = newMetrics(defaultSet{})

// NewMetrics registers the lock metrics in set.
// It panics if the metrics are already registered in set.
func NewMetrics(set *metrics.Set) *Metrics {
	return newMetrics(set)
}

func newMetrics(r registry) *Metrics {
	return &Metrics{
		acquired:  r.NewCounter(`dlock_acquire_total{outcome="acquired"}`),
		stolen:    r.NewCounter(`dlock_acquire_total{outcome="stolen"}`),
		abandoned: r.NewCounter(`dlock_acquire_total{outcome="abandoned"}`),
		failed:    r.NewCounter(`dlock_acquire_total{outcome="error"}`),
		waits:     r.NewCounter(`dlock_acquire_wait_total`),
		releases:  r.NewCounter(`dlock_release_total`),
		duration:  r.NewHistogram(`dlock_acquire_duration_seconds`),
	}
}

// observeAcquire counts a finished Acquire. Store failures and cancellation
// are counted as errors, not as abandoned attempts.
func (m *Metrics) observeAcquire(outcome Outcome, err error, start time.Time) {
	switch {
	case err != nil:
		m.failed.Inc()
	case outcome == OutcomeAcquired:
		m.acquired.Inc()
	case outcome == OutcomeStolen:
		m.stolen.Inc()
	default:
		m.abandoned.Inc()
	}
	m.duration.UpdateDuration(start)
}
