// Package cmd implements the command-line interface of dLock. It provides a
// hierarchical command structure for running the server and for using locks
// as a client.
//
// The package is organized into several subpackages:
//
//   - lock: Commands for locking (acquire, release, exec, bench)
//   - kv: Commands running a single store primitive (setnx, get, getset, del)
//   - serve: Commands for starting and configuring the dLock server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as DLOCK_<FLAG> environment variable or in a .env file.
// See dlock -help for a list of all commands.
package cmd
