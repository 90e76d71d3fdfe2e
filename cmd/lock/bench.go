package lock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/store"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var benchCmd = &cobra.Command{
	Use:   "bench [key]",
	Short: "Let several workers contend for one lock",
	Long:  "Let several workers contend for one lock for a while. Reports the acquire latency and the outcomes, and fails if two workers were ever inside the critical section at the same time.",
	Args:  cobra.ExactArgs(1),
	RunE:  runBench,
}

func init() {
	key := "workers"
	benchCmd.Flags().Int(key, 8, util.WrapString("Number of goroutines contending for the lock, each with its own lock manager"))
	key = "duration"
	benchCmd.Flags().Duration(key, 5*time.Second, util.WrapString("How long the benchmark runs"))
	key = "hold"
	benchCmd.Flags().Duration(key, time.Millisecond, util.WrapString("How long a worker stays in the critical section. Must be well below the lease"))
}

type benchConfig struct {
	Workers  int
	Duration time.Duration
	Hold     time.Duration
	Wait     time.Duration
	Lease    time.Duration
}

type benchResult struct {
	Acquired  int64
	Stolen    int64
	Abandoned int64
	Overlaps  int64
	Elapsed   time.Duration
	// Latency is the time from the start of Acquire until the lock is held
	Latency gometrics.Timer
}

func runBench(cmd *cobra.Command, args []string) error {
	config := benchConfig{
		Workers:  viper.GetInt("workers"),
		Duration: viper.GetDuration("duration"),
		Hold:     viper.GetDuration("hold"),
		Wait:     viper.GetDuration("wait"),
		Lease:    viper.GetDuration("lease"),
	}
	if config.Hold >= config.Lease {
		return fmt.Errorf("hold (%s) must be shorter than the lease (%s)", config.Hold, config.Lease)
	}

	fmt.Println("Lock benchmark for dLock servers")
	fmt.Println()
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Workers: %d, Duration: %s, Hold: %s, Wait: %s, Lease: %s\n\n",
		config.Workers, config.Duration, config.Hold, config.Wait, config.Lease)

	result, err := bench(cmd.Context(), rpcStore, lockmgr.Key(args[0]), config)
	if err != nil {
		return err
	}
	defer result.Latency.Stop()

	printBenchResult(result)

	if result.Overlaps > 0 {
		return fmt.Errorf("critical sections overlapped %d times", result.Overlaps)
	}
	return nil
}

// bench runs the contention loop. It stops after config.Duration, when ctx is done
// or on the first store error, which is returned.
func bench(ctx context.Context, s store.IStore, key lockmgr.Key, config benchConfig) (*benchResult, error) {
	result := &benchResult{Latency: gometrics.NewTimer()}

	var (
		acquired, stolen, abandoned, overlaps atomic.Int64
		inside                                atomic.Int32
	)

	ctx, cancel := context.WithTimeout(ctx, config.Duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < max(config.Workers, 1); i++ {
		lm := lockmgr.NewLockManager(s, key, lockmgr.WithLeaseDuration(config.Lease))

		g.Go(func() error {
			for ctx.Err() == nil {
				attempt := time.Now()
				outcome, err := lm.Acquire(ctx, config.Wait)
				if err != nil {
					if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
						return nil
					}
					return err
				}

				switch outcome {
				case lockmgr.OutcomeAbandoned:
					abandoned.Add(1)
					continue
				case lockmgr.OutcomeStolen:
					stolen.Add(1)
				default:
					acquired.Add(1)
				}
				result.Latency.UpdateSince(attempt)

				if inside.Add(1) > 1 {
					overlaps.Add(1)
				}
				time.Sleep(config.Hold)
				inside.Add(-1)

				if err := lm.Release(); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	result.Elapsed = time.Since(start)
	result.Acquired = acquired.Load()
	result.Stolen = stolen.Load()
	result.Abandoned = abandoned.Load()
	result.Overlaps = overlaps.Load()
	if err != nil {
		result.Latency.Stop()
		return nil, err
	}
	return result, nil
}

func printBenchResult(r *benchResult) {
	ps := r.Latency.Percentiles([]float64{0.5, 0.9, 0.99})
	held := r.Acquired + r.Stolen

	fmt.Printf("Held:      %d (%.1f/s)\n", held, float64(held)/r.Elapsed.Seconds())
	fmt.Printf("Acquired:  %d\n", r.Acquired)
	fmt.Printf("Stolen:    %d\n", r.Stolen)
	fmt.Printf("Abandoned: %d\n", r.Abandoned)
	fmt.Printf("Overlaps:  %d\n", r.Overlaps)
	fmt.Println()
	fmt.Println("Acquire latency:")
	fmt.Printf("  mean %s, p50 %s, p90 %s, p99 %s, max %s\n",
		time.Duration(r.Latency.Mean()).Round(time.Microsecond),
		time.Duration(ps[0]).Round(time.Microsecond),
		time.Duration(ps[1]).Round(time.Microsecond),
		time.Duration(ps[2]).Round(time.Microsecond),
		time.Duration(r.Latency.Max()).Round(time.Microsecond),
	)
}
