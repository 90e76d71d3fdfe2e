package lock

import (
	"time"

	"github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/rpc/client"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcStore store.IStore

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:               "lock",
		Short:             "Perform lock operations",
		PersistentPreRunE: setupLockClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands to lock command
	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)
	LockCommands.AddCommand(execCmd)
	LockCommands.AddCommand(benchCmd)

	// Add common RPC flags to the lock command
	util.SetupRPCClientFlags(LockCommands)

	LockCommands.PersistentFlags().Int("shard", 1, util.WrapString("ID of the shard to connect to"))

	// Acquisition flags, shared by acquire, exec and bench
	key := "lease"
	LockCommands.PersistentFlags().Duration(key, lockmgr.DefaultLeaseDuration, util.WrapString("How long an acquired lock is valid. A holder that does not release within the lease can lose the lock to another caller"))

	key = "wait"
	LockCommands.PersistentFlags().Duration(key, 100*time.Millisecond, util.WrapString("Pause between two attempts while the lock is held by someone else"))

	key = "max-wait"
	LockCommands.PersistentFlags().Duration(key, 0, util.WrapString("Give up acquiring after this duration (0 waits forever)"))
}

// setupLockClient initializes the store client all lock managers of the command share
func setupLockClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	shardId := util.GetShardID()

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	rpcStore, err = client.NewRPCStore(
		shardId,
		*config,
		t,
		s,
	)

	return err
}

// newLockManager creates a lock manager for key with the configured lease
func newLockManager(s store.IStore, key string) lockmgr.ILockManager {
	return lockmgr.NewLockManager(s, lockmgr.Key(key), lockmgr.WithLeaseDuration(viper.GetDuration("lease")))
}
