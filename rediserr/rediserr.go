// Package rediserr defines the error taxonomy shared across the codec,
// connection, and pool layers (§7): Transport, Protocol, Server, Conversion,
// Pool, and Usage kinds. Keeping these in a leaf package lets every other
// package depend on them without import cycles; the top-level Client facade
// re-exports the ones callers are expected to match against.
package rediserr

import (
	"errors"
	"fmt"

	"github.com/xenking/gorest-redis/resp"
)

// ErrClosed is the cause a Connection records (see StateMachine.LastErr)
// when it is closed explicitly. Commands on the closed Connection fail with
// ErrConnectionClosed, and Pool calls after Close fail with ErrPoolClosed.
var ErrClosed = errors.New("redis: closed")

// ErrConnLost signals connection loss to a command awaiting its response.
var ErrConnLost = errors.New("redis: connection lost while awaiting response")

// ErrProtocol signals a RESP framing violation. Fatal to the Connection.
var ErrProtocol = errors.New("redis: protocol violation")

// ErrNull represents the null bulk/array reply where a mapper expected data.
var ErrNull = errors.New("redis: null")

// ErrConnectionClosed is delivered to every pending InFlight and active
// subscription when a Connection transitions to Closed (§4.3).
var ErrConnectionClosed = errors.New("redis: connection closed")

// Pool error kinds (§7 "Pool"): PoolClosed, NoAvailableConnectionTarget,
// LeaseQueueFull.
var (
	ErrPoolClosed                 = errors.New("redis: pool closed")
	ErrNoAvailableConnectionTarget = errors.New("redis: no available connection target")
	ErrLeaseQueueFull              = errors.New("redis: lease queue full")
)

// Usage error kinds (§7 "Usage"): invalid call shapes caught at the API
// surface rather than sent to the server.
var (
	// ErrSubscribeNotAllowed is returned when SUBSCRIBE/PSUBSCRIBE is
	// attempted on a Connection with subscriptions_allowed=false, including
	// any leased-only Connection obtained from a non-pub/sub lease (§5
	// "Shared resource policy").
	ErrSubscribeNotAllowed = errors.New("redis: subscriptions not allowed on this connection")
	// ErrPipelineBlockedInSubscribeMode is returned when a normal pipelined
	// command is submitted while the Connection is InSubscribeMode (§4.3).
	ErrPipelineBlockedInSubscribeMode = errors.New("redis: connection is in subscribe mode")
	// ErrEmptyArgument is returned by Connection.Subscribe/Unsubscribe (and
	// the Pool and Client wrappers) when no channel or pattern names are
	// given. The constructors in package commands do not check their key
	// lists.
	ErrEmptyArgument = errors.New("redis: at least one argument is required")
)

// ServerError is a command response from Redis carrying an "-ERR ..." (or
// "-NOSCRIPT ...", "-WRONGTYPE ...", etc) reply. It does not kill the
// Connection (§7 "Server").
type ServerError string

// Error honors the error interface.
func (e ServerError) Error() string {
	return fmt.Sprintf("redis: server error %q", string(e))
}

// Prefix returns the error kind, the first word of the message (e.g. "ERR",
// "NOSCRIPT", "WRONGTYPE").
func (e ServerError) Prefix() string {
	s := string(e)
	for i, r := range s {
		if r == ' ' {
			return s[:i]
		}
	}
	return s
}

// ConversionError reports that a response mapper could not produce the
// requested typed result from the RespValue it was handed (§7 "Conversion").
type ConversionError struct {
	Want string // the type or shape the mapper expected
	Got  resp.Kind
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("redis: cannot convert %s reply to %s", e.Got, e.Want)
}

// AsServerError converts an Error-kind Value into a ServerError, the
// standard first check every built-in mapper performs before attempting its
// own conversion (§4.3 "If the value is Error(msg), the mapper still runs
// but most mappers surface a typed ServerError").
func AsServerError(v resp.Value) (ServerError, bool) {
	if v.Kind == resp.Error {
		return ServerError(v.Str), true
	}
	return "", false
}
