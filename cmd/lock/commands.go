package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// acquireCmd represents the acquire command
	acquireCmd = &cobra.Command{
		Use:   "acquire [key]",
		Short: "Acquire a lock",
		Long:  "Acquire a lock and keep it until it is released or the lease runs out. Prints the outcome and the token written to the lock key.",
		Args:  cobra.ExactArgs(1),
		RunE:  runAcquire,
	}

	// releaseCmd represents the release command
	releaseCmd = &cobra.Command{
		Use:   "release [key]",
		Short: "Release a lock",
		Long:  "Release a lock by deleting its key. The lock is released no matter who holds it, releasing a free lock is a no-op.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelease,
	}

	// execCmd represents the exec command
	execCmd = &cobra.Command{
		Use:   "exec [key] -- [command] [args...]",
		Short: "Run a command while holding a lock",
		Long:  "Acquire the lock, run the command and release the lock when the command exits. The exit status of the command is passed through.",
		Args:  cobra.MinimumNArgs(2),
		// the command's own error output is enough
		SilenceUsage: true,
		RunE:         runExec,
	}
)

// acquireContext bounds the acquisition by the max-wait flag
func acquireContext(parent context.Context) (context.Context, context.CancelFunc) {
	if maxWait := viper.GetDuration("max-wait"); maxWait > 0 {
		return context.WithTimeout(parent, maxWait)
	}
	return context.WithCancel(parent)
}

// runAcquire handles the acquire lock command
func runAcquire(cmd *cobra.Command, args []string) error {
	key := args[0]
	lm := newLockManager(rpcStore, key)

	ctx, cancel := acquireContext(cmd.Context())
	defer cancel()

	outcome, err := lm.Acquire(ctx, viper.GetDuration("wait"))
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !outcome.Acquired() {
		fmt.Printf("outcome=%s\n", outcome)
		return fmt.Errorf("lock %s: %w", key, lockmgr.ErrNotAcquired)
	}

	// read back the token, it carries the expiry of the lease
	token, ok, err := rpcStore.Get(lm.Key())
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if !ok {
		fmt.Printf("outcome=%s, token=<released>\n", outcome)
		return nil
	}

	fmt.Printf("outcome=%s, token=%s, expires=%s\n", outcome, token,
		lockmgr.TokenExpiry(token).Format(time.RFC3339Nano))
	return nil
}

// runRelease handles the release lock command
func runRelease(_ *cobra.Command, args []string) error {
	lm := newLockManager(rpcStore, args[0])

	if err := lm.Release(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	fmt.Println("released=true")
	return nil
}

// runExec runs the command given after the key under the lock
func runExec(cmd *cobra.Command, args []string) error {
	key, command := args[0], args[1:]
	lm := newLockManager(rpcStore, key)
	lease := viper.GetDuration("lease")

	ctx, cancel := acquireContext(cmd.Context())
	defer cancel()

	err := lm.Mutex(ctx, viper.GetDuration("wait"), func() error {
		// the command is only bound to the signals of the process, not to max-wait
		child := exec.CommandContext(cmd.Context(), command[0], command[1:]...)
		child.Stdin = os.Stdin
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr

		start := time.Now()
		err := child.Run()
		if took := time.Since(start); took > lease {
			fmt.Fprintf(os.Stderr, "warning: %s ran for %s, longer than the lease of %s\n", command[0], took.Round(time.Millisecond), lease)
		}
		return err
	})

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// reported by the command itself
		cmd.SilenceErrors = true
	}
	return err
}
