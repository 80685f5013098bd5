package conn

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/xenking/gorest-redis/command"
	"github.com/xenking/gorest-redis/internal/ids"
	"github.com/xenking/gorest-redis/internal/logging"
	"github.com/xenking/gorest-redis/internal/reactor"
	"github.com/xenking/gorest-redis/pubsub"
	"github.com/xenking/gorest-redis/rediserr"
	"github.com/xenking/gorest-redis/resp"
)

// Config recognized by a Connection (§4.4).
type Config struct {
	Address              string
	Password             string
	InitialDatabase      int
	SubscriptionsAllowed bool
	SendImmediately      bool
	CommandTimeout       time.Duration
}

// Connection is a thin shell binding a Transport, a StateMachine, and its
// reactor thread affinity (§4.4). All mutation of its state happens on the
// reactor goroutine it is bound to; Send/Subscribe/Unsubscribe/Close always
// post a closure there regardless of the calling goroutine, which is the
// practical form of §9's "thread hopping" rule in a language without
// goroutine-local identity: every entry point always hops, rather than
// first checking whether it is redundant to do so.
type Connection struct {
	ID  string
	cfg Config

	transport Transport
	decoder   resp.Decoder
	sm        *StateMachine
	registry  *pubsub.Registry
	reactor   *reactor.Reactor
	log       logging.Logging

	writeBuf []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// New constructs a Connection bound to react, owning transport. The caller
// must call Handshake before issuing ordinary commands if cfg.Password or
// cfg.InitialDatabase is set, and must arrange for react to be shared with
// the owning Pool (§5 "Connections also belong to the Pool's reactor
// thread").
func New(cfg Config, transport Transport, react *reactor.Reactor, log logging.Logging) *Connection {
	if log == nil {
		log = logging.Noop
	}
	registry := pubsub.NewRegistry()
	c := &Connection{
		ID:        ids.New(),
		cfg:       cfg,
		transport: transport,
		sm:        NewStateMachine(cfg.SubscriptionsAllowed, registry),
		registry:  registry,
		reactor:   react,
		log:       log,
		closed:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// State returns the Connection's current lifecycle state. Safe to call from
// any goroutine other than the shared reactor's own loop goroutine: it is
// read via a reactor round-trip, which would deadlock if called from a
// closure already running on that loop (use StateNow there instead).
func (c *Connection) State() State {
	resultCh := make(chan State, 1)
	c.reactor.Post(func() { resultCh <- c.sm.State() })
	return <-resultCh
}

// StateNow reads the state directly, without a reactor round-trip. Callers
// MUST already be executing on the Connection's bound reactor goroutine —
// this is what the Pool uses from inside its own reactor closures, since
// Pool and Connection share one reactor thread (§5) and a Post-and-wait
// from within a closure already running on that thread would deadlock.
func (c *Connection) StateNow() State { return c.sm.State() }

// SetSubscriptionsAllowed flips the gate the Pool uses to pin/unpin this
// Connection for pub/sub use (§4.5). Safe to call from any goroutine other
// than the shared reactor's own loop goroutine; see SetSubscriptionsAllowedNow.
func (c *Connection) SetSubscriptionsAllowed(allowed bool) {
	done := make(chan struct{})
	c.reactor.Post(func() {
		c.sm.SetSubscriptionsAllowed(allowed)
		close(done)
	})
	<-done
}

// SetSubscriptionsAllowedNow flips the gate directly, without a reactor
// round-trip. Callers MUST already be on the shared reactor goroutine.
func (c *Connection) SetSubscriptionsAllowedNow(allowed bool) {
	c.sm.SetSubscriptionsAllowed(allowed)
}

// Handshake sends the optional AUTH and optional SELECT commands and, on
// success, marks the Connection Active (§4.3, §6 "Handshake"). A failure of
// either fails the Connection.
func (c *Connection) Handshake(ctx context.Context) error {
	if c.cfg.Password != "" {
		auth := command.New("AUTH", [][]byte{[]byte(c.cfg.Password)}, command.MapOK)
		if _, err := Send(ctx, c, auth); err != nil {
			c.Fail(err)
			return err
		}
	}
	if c.cfg.InitialDatabase != 0 {
		sel := command.New("SELECT", [][]byte{[]byte(strconv.Itoa(c.cfg.InitialDatabase))}, command.MapOK)
		if _, err := Send(ctx, c, sel); err != nil {
			c.Fail(err)
			return err
		}
	}
	done := make(chan struct{})
	c.reactor.Post(func() {
		c.sm.MarkActive()
		close(done)
	})
	<-done
	return nil
}

// enqueue posts keyword/args onto the wire via the reactor and returns the
// channel the response will arrive on.
func (c *Connection) enqueue(keyword string, args [][]byte, resolve func(resp.Value) (any, error)) chan outcome {
	done := make(chan outcome, 1)
	entry := &pendingEntry{resolve: resolve, done: done}
	wire := resp.AppendCommand(nil, keyword, args...)

	c.reactor.Post(func() {
		if err := c.sm.Submit(keyword, entry); err != nil {
			entry.fail(err)
			return
		}
		c.write(wire)
	})
	return done
}

// write appends wire to the pending write buffer and flushes immediately
// unless cfg.SendImmediately is false and more work is already queued on the
// reactor — a simple approximation of a pipelining write-batching heuristic.
// Must run on the reactor goroutine.
func (c *Connection) write(wire []byte) {
	c.writeBuf = append(c.writeBuf, wire...)
	if c.cfg.SendImmediately || c.reactor.Pending() == 0 {
		c.flush()
	}
}

func (c *Connection) flush() {
	if len(c.writeBuf) == 0 {
		return
	}
	if c.cfg.CommandTimeout != 0 {
		c.transport.SetDeadline(time.Now().Add(c.cfg.CommandTimeout))
	}
	buf := c.writeBuf
	c.writeBuf = nil
	if _, err := c.transport.Write(buf); err != nil {
		c.failLocked(err)
	}
}

// Send issues cmd and blocks until its reply resolves or ctx is done. It is
// a package-level generic function, not a method, because Go methods cannot
// carry their own type parameters (§9 "Dynamic mapper closures").
func Send[T any](ctx context.Context, c *Connection, cmd *command.Command[T]) (T, error) {
	var zero T
	done := c.enqueue(cmd.Keyword(), cmd.Args(), cmd.Resolve)
	select {
	case res := <-done:
		if res.err != nil {
			return zero, res.err
		}
		v, _ := res.val.(T)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Subscribe issues one SUBSCRIBE or PSUBSCRIBE command per name (rather
// than batching all names into a single wire command), so that each
// server-reported confirmation frame maps 1:1 to the InFlight entry that
// requested it (§4.3's "pop the head InFlight" rule assumes exactly this
// shape; see DESIGN.md).
func (c *Connection) Subscribe(ctx context.Context, kind pubsub.Kind, names []string, receiver pubsub.Receiver, onSubscribe pubsub.SubscribeNotify, onUnsubscribe pubsub.UnsubscribeNotify) error {
	if len(names) == 0 {
		return rediserr.ErrEmptyArgument
	}

	results := make(chan error, len(names))
	c.reactor.Post(func() {
		if !c.sm.subscriptionsAllowed {
			for range names {
				results <- rediserr.ErrSubscribeNotAllowed
			}
			return
		}
		for _, name := range names {
			c.registry.Add(kind, name, receiver, onSubscribe, onUnsubscribe)
			entry := &pendingEntry{
				resolve: func(resp.Value) (any, error) { return nil, nil },
				done:    make(chan outcome, 1),
			}
			if err := c.sm.Submit(kind.SubscribeKeyword(), entry); err != nil {
				results <- err
				continue
			}
			c.write(resp.AppendCommand(nil, kind.SubscribeKeyword(), []byte(name)))
			go func(e *pendingEntry) {
				o := <-e.done
				results <- o.err
			}(entry)
		}
	})

	var firstErr error
	for i := 0; i < len(names); i++ {
		select {
		case err := <-results:
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return firstErr
}

// Unsubscribe issues one UNSUBSCRIBE or PUNSUBSCRIBE command per name. The
// registry bookkeeping and unsubscribe notification happen uniformly via
// StateMachine.Dispatch when the server's confirmation arrives.
func (c *Connection) Unsubscribe(ctx context.Context, kind pubsub.Kind, names []string) error {
	if len(names) == 0 {
		return rediserr.ErrEmptyArgument
	}

	results := make(chan error, len(names))
	c.reactor.Post(func() {
		for _, name := range names {
			entry := &pendingEntry{
				resolve: func(resp.Value) (any, error) { return nil, nil },
				done:    make(chan outcome, 1),
			}
			if err := c.sm.Submit(kind.UnsubscribeKeyword(), entry); err != nil {
				results <- err
				continue
			}
			c.write(resp.AppendCommand(nil, kind.UnsubscribeKeyword(), []byte(name)))
			go func(e *pendingEntry) {
				o := <-e.done
				results <- o.err
			}(entry)
		}
	})

	var firstErr error
	for i := 0; i < len(names); i++ {
		select {
		case err := <-results:
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return firstErr
}

// readLoop pumps bytes from the transport and decodes them off the reactor
// goroutine (decoding is pure and needs no shared state); each decoded Value
// is then posted to the reactor for dispatch into the pipeline or pub/sub
// router.
func (c *Connection) readLoop() {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)

	for {
		n, err := c.transport.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			for {
				v, consumed, derr := c.decoder.Decode(buf)
				if derr == resp.ErrNeedMore {
					break
				}
				if derr != nil {
					c.Fail(derr)
					return
				}
				buf = buf[consumed:]
				value := v
				c.reactor.Post(func() { c.sm.Dispatch(value) })
			}
		}
		if err != nil {
			c.Fail(err)
			return
		}
	}
}

// Fail transitions the Connection to Closed, failing every pending command
// with ConnectionClosed and every active subscription with an unsubscribe
// notification reasoned "connection closed" (§4.3). Safe from any
// goroutine.
func (c *Connection) Fail(err error) {
	c.reactor.Post(func() { c.failLocked(err) })
}

func (c *Connection) failLocked(err error) {
	if c.sm.State() == StateClosed {
		return
	}
	c.sm.Fail(err)
	c.transport.Close()
	c.closeOnce.Do(func() { close(c.closed) })
}

// Close closes the Connection explicitly (§4.4). Safe to call from any
// goroutine other than the shared reactor's own loop goroutine; see
// CloseNow.
func (c *Connection) Close() error {
	c.Fail(rediserr.ErrClosed)
	<-c.closed
	return nil
}

// CloseNow closes the Connection directly, without a reactor round-trip.
// Callers MUST already be on the shared reactor goroutine — this is what
// the Pool uses to discard a Connection from inside its own reactor
// closures (failLocked itself performs no blocking work, so it is safe to
// call synchronously).
func (c *Connection) CloseNow() {
	c.failLocked(rediserr.ErrClosed)
}

// Done returns a channel closed once the Connection has failed or been
// explicitly closed.
func (c *Connection) Done() <-chan struct{} { return c.closed }
