package conn

import (
	"github.com/xenking/gorest-redis/pubsub"
	"github.com/xenking/gorest-redis/rediserr"
	"github.com/xenking/gorest-redis/resp"
)

// State is the Connection lifecycle state (§3 "ConnectionState").
type State int

const (
	StateFresh State = iota
	StateActive
	StateSubscribed
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "Fresh"
	case StateActive:
		return "Active"
	case StateSubscribed:
		return "InSubscribeMode"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// outcome is what a pendingEntry resolves to: either a boxed mapper result
// or an error.
type outcome struct {
	val any
	err error
}

// pendingEntry is an InFlight command (§3): the result mapper (boxed, per
// command.Resolver) and a completion channel.
type pendingEntry struct {
	resolve func(resp.Value) (any, error)
	done    chan outcome
}

func (e *pendingEntry) complete(v resp.Value) {
	val, err := e.resolve(v)
	e.done <- outcome{val: val, err: err}
}

func (e *pendingEntry) fail(err error) {
	e.done <- outcome{err: err}
}

func keywordAllowedInSubscribeMode(keyword string) bool {
	switch keyword {
	case "SUBSCRIBE", "UNSUBSCRIBE", "PSUBSCRIBE", "PUNSUBSCRIBE", "PING", "QUIT":
		return true
	default:
		return false
	}
}

// StateMachine is the per-connection pipeline described in §4.3: a FIFO of
// InFlight commands matching the order responses are expected in, plus the
// pub/sub message router that takes over once InSubscribeMode. It is not
// safe for concurrent use — it is mutated only from the owning Connection's
// reactor goroutine.
type StateMachine struct {
	state                State
	pending              []*pendingEntry
	registry             *pubsub.Registry
	subscriptionsAllowed bool
	lastErr              error
}

// NewStateMachine constructs a Fresh state machine. subscriptionsAllowed
// gates whether SUBSCRIBE/PSUBSCRIBE may be issued at all (§4.4).
func NewStateMachine(subscriptionsAllowed bool, registry *pubsub.Registry) *StateMachine {
	return &StateMachine{
		state:                StateFresh,
		registry:             registry,
		subscriptionsAllowed: subscriptionsAllowed,
	}
}

// State returns the current lifecycle state.
func (sm *StateMachine) State() State { return sm.state }

// SetSubscriptionsAllowed updates the gate used by Submit when issuing
// SUBSCRIBE/PSUBSCRIBE. The Pool flips this when pinning/unpinning a
// Connection for pub/sub use (§4.5).
func (sm *StateMachine) SetSubscriptionsAllowed(allowed bool) {
	sm.subscriptionsAllowed = allowed
}

// MarkActive transitions Fresh → Active once the handshake (optional AUTH,
// optional SELECT) has succeeded (§4.3).
func (sm *StateMachine) MarkActive() {
	if sm.state == StateFresh {
		sm.state = StateActive
	}
}

// Submit pushes e onto the pending FIFO and reports whether keyword is
// acceptable given the current state, applying the pipelining and pub/sub
// rules of §4.3: ordinary commands are rejected while InSubscribeMode
// (except PING/QUIT and the (un)subscribe family); SUBSCRIBE/PSUBSCRIBE
// additionally require subscriptions_allowed, and issuing one transitions
// Active → InSubscribeMode immediately (the server's confirmation only
// updates the recorded count, per §4.3's transition note).
func (sm *StateMachine) Submit(keyword string, e *pendingEntry) error {
	switch sm.state {
	case StateClosing, StateClosed:
		return rediserr.ErrConnectionClosed

	case StateSubscribed:
		if !keywordAllowedInSubscribeMode(keyword) {
			return rediserr.ErrPipelineBlockedInSubscribeMode
		}

	case StateFresh, StateActive:
		if keyword == "SUBSCRIBE" || keyword == "PSUBSCRIBE" {
			if !sm.subscriptionsAllowed {
				return rediserr.ErrSubscribeNotAllowed
			}
			sm.state = StateSubscribed
		}
	}

	sm.pending = append(sm.pending, e)
	return nil
}

func (sm *StateMachine) popHead() *pendingEntry {
	if len(sm.pending) == 0 {
		return nil
	}
	e := sm.pending[0]
	sm.pending = sm.pending[1:]
	return e
}

// Dispatch hands a decoded Value to the pipeline or the pub/sub router
// depending on the current state (§4.3). It is the sole entry point the
// Connection's reactor loop calls for inbound data.
func (sm *StateMachine) Dispatch(v resp.Value) {
	if sm.state == StateSubscribed {
		if tag, ok := pushTag(v); ok {
			switch tag {
			case "message":
				if len(v.Items) < 3 {
					break
				}
				channel, _ := bulkOrSimple(v.Items[1])
				payload, _ := bulkBytes(v.Items[2])
				sm.registry.Route(pubsub.KindChannel, channel, payload)
				return // do not pop from pending

			case "pmessage":
				if len(v.Items) < 4 {
					break
				}
				pattern, _ := bulkOrSimple(v.Items[1])
				payload, _ := bulkBytes(v.Items[3])
				sm.registry.Route(pubsub.KindPattern, pattern, payload)
				return // do not pop from pending

			case "subscribe", "psubscribe", "unsubscribe", "punsubscribe":
				if len(v.Items) < 3 {
					break
				}
				name, _ := bulkOrSimple(v.Items[1])
				count := v.Items[2].Int
				kind := pubsub.KindChannel
				if tag == "psubscribe" || tag == "punsubscribe" {
					kind = pubsub.KindPattern
				}
				isSub := tag == "subscribe" || tag == "psubscribe"

				empty := sm.registry.UpdateCount(kind, name, count, isSub)
				if e := sm.popHead(); e != nil {
					e.complete(v)
				}
				if empty {
					sm.state = StateActive
				}
				return
			}
		}
	}

	if e := sm.popHead(); e != nil {
		e.complete(v)
	}
}

// Fail transitions to Closing/Closed, failing every pending InFlight with
// ErrConnectionClosed and cascading an unsubscribe notification (reason
// "connection closed") to every active subscription (§4.3 "Failure
// semantics").
func (sm *StateMachine) Fail(err error) {
	if sm.state == StateClosed {
		return
	}
	sm.state = StateClosed
	sm.lastErr = err

	for _, e := range sm.pending {
		e.fail(rediserr.ErrConnectionClosed)
	}
	sm.pending = nil

	sm.registry.CloseAll("connection closed")
}

// LastErr returns the error that caused Fail, if any.
func (sm *StateMachine) LastErr() error { return sm.lastErr }

func pushTag(v resp.Value) (string, bool) {
	if v.Kind != resp.Array || v.Null || len(v.Items) == 0 {
		return "", false
	}
	head := v.Items[0]
	switch head.Kind {
	case resp.BulkString:
		if head.Null {
			return "", false
		}
		return string(head.Bulk), true
	case resp.SimpleString:
		return head.Str, true
	default:
		return "", false
	}
}

func bulkOrSimple(v resp.Value) (string, bool) {
	switch v.Kind {
	case resp.BulkString:
		if v.Null {
			return "", false
		}
		return string(v.Bulk), true
	case resp.SimpleString:
		return v.Str, true
	default:
		return "", false
	}
}

func bulkBytes(v resp.Value) ([]byte, bool) {
	if v.Kind != resp.BulkString || v.Null {
		return nil, false
	}
	return v.Bulk, true
}
