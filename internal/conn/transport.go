// Package conn implements the per-connection state machine (§4.3) and the
// Connection shell that owns it (§4.4). TCP/TLS/keepalive details are
// deliberately out of scope (§1): callers supply a Transport, an injectable
// framed byte stream.
package conn

import (
	"context"
	"time"
)

// Transport is the injectable collaborator a Connection reads and writes
// RESP bytes through. A *net.Conn satisfies it directly.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetDeadline(t time.Time) error
}

// Dialer establishes a Transport to addr. The Pool's factory (§4.5) calls
// this once per Connection it creates.
type Dialer func(ctx context.Context, addr string) (Transport, error)
