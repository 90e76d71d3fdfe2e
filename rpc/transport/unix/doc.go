// Package unix runs the base stream transport over Unix domain sockets, for lock
// managers on the same host as the server. The endpoint is the socket path; a stale
// socket file left by a previous run is removed before listening. Server buffers
// default to 64 KB, SocketConf sets the socket buffer sizes.
package unix
