// Package tcp runs the base stream transport over TCP.
//
// Both sides apply TCPConf (TCP_NODELAY, keep-alive, linger) and SocketConf (socket
// buffer sizes) to every connection. The server's request buffers default to 512 KB,
// ServerTransportConfig.BufferSize overrides that.
package tcp
