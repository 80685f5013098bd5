// Package redis provides access to Redis nodes.
// See <https://redis.io/topics/introduction> for the concept.
package redis

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"time"

	"github.com/xenking/gorest-redis/command"
	"github.com/xenking/gorest-redis/commands"
	"github.com/xenking/gorest-redis/internal/conn"
	"github.com/xenking/gorest-redis/internal/logging"
	"github.com/xenking/gorest-redis/pool"
	"github.com/xenking/gorest-redis/pubsub"
	"github.com/xenking/gorest-redis/rediserr"
)

// Re-exported error values callers are expected to match against with
// errors.Is; the taxonomy itself lives in package rediserr (§7) so the
// codec, connection, and pool layers can depend on it without reaching up
// to this facade.
var (
	// ErrClosed is the cause recorded when a Connection is closed
	// explicitly; commands issued through a closed Client fail with
	// ErrPoolClosed instead.
	ErrClosed = rediserr.ErrClosed
	// ErrPoolClosed is ErrClosed's Pool-specific counterpart, surfaced by
	// Do/Subscribe once the underlying Pool has been closed.
	ErrPoolClosed = rediserr.ErrPoolClosed
	// ErrNoAvailableConnectionTarget means the Pool's target list is empty.
	ErrNoAvailableConnectionTarget = rediserr.ErrNoAvailableConnectionTarget
	// ErrLeaseQueueFull means PendingLeaseBound queued Lease callers ahead
	// of this one; retry later rather than queuing further.
	ErrLeaseQueueFull = rediserr.ErrLeaseQueueFull
)

func isUnixAddr(s string) bool {
	return len(s) != 0 && s[0] == '/'
}

func normalizeAddr(s string) string {
	if isUnixAddr(s) {
		return filepath.Clean(s)
	}

	host, port, err := net.SplitHostPort(s)
	if err != nil {
		host = s
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	return net.JoinHostPort(host, port)
}

// netDialer is the default conn.Dialer: a plain net.Dial, tuned the same
// way the original single-connection Client tuned its socket (disable
// Nagle's algorithm, discard on close rather than lingering).
func netDialer(ctx context.Context, addr string) (conn.Transport, error) {
	network := "tcp"
	if isUnixAddr(addr) {
		network = "unix"
	}
	d := net.Dialer{}
	c, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if tcp, ok := c.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
		tcp.SetLinger(0)
	}
	return c, nil
}

// Options configures a Client (§3 "Pool" construction-time settings).
// Zero-valued fields take the defaults pool.Config.WithDefaults applies.
type Options struct {
	// Addresses is the static target list. If Discovery is also set, these
	// addresses are used until the first discovery update replaces them.
	Addresses []string
	// Discovery, if set, feeds the Pool a live address-update stream
	// (§4.5 "Service discovery"); completion of its channel begins
	// self-close, matching a connection-losing teacher Client's
	// auto-reconnect loop generalized to a population of connections.
	Discovery pool.Discovery

	Password        string
	InitialDatabase int

	MinConnections int
	MaxConnections int
	Cap            pool.CapMode

	DialTimeout    time.Duration
	CommandTimeout time.Duration

	InitialDelay  time.Duration
	BackoffFactor float64

	CheckHealth func(*conn.Connection) error

	Log logging.Logging
}

// Client manages a Pool of connections to Redis nodes until Close.
// Multiple goroutines may invoke methods on a Client simultaneously;
// command invocation applies <https://redis.io/topics/pipelining> on
// concurrency, exactly as a single teacher Connection would, but spread
// across as many connections as the Pool maintains.
type Client struct {
	pool *pool.Pool
}

// NewClient launches a managed Pool against addr (or Options.Addresses /
// Options.Discovery if set). The host defaults to localhost, the port
// defaults to 6379; use an absolute file path (e.g. "/var/run/redis.sock")
// for Unix domain sockets.
func NewClient(addr string, opts Options) *Client {
	src := opts.Addresses
	if len(src) == 0 && addr != "" {
		src = []string{addr}
	}
	addrs := make([]string, len(src))
	for i, a := range src {
		addrs[i] = normalizeAddr(a)
	}

	cfg := pool.Config{
		MinConnections:    opts.MinConnections,
		MaxConnections:    opts.MaxConnections,
		Cap:               opts.Cap,
		Dialer:            netDialer,
		DialTimeout:       opts.DialTimeout,
		InitialDelay:      opts.InitialDelay,
		BackoffFactor:     opts.BackoffFactor,
		Addresses:         addrs,
		Discovery:         opts.Discovery,
		CheckHealth:       opts.CheckHealth,
		Log:               opts.Log,
		ConnTemplate: conn.Config{
			Password:        opts.Password,
			InitialDatabase: opts.InitialDatabase,
			CommandTimeout:  opts.CommandTimeout,
		},
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 10
	}

	return &Client{pool: pool.New(cfg)}
}

// Close stops command submission: later calls fail with ErrPoolClosed.
// Pending leases are failed and all pooled connections are closed; calling
// Close more than once has no effect beyond the first.
func (c *Client) Close() error {
	return c.pool.Close()
}

// Do leases a Connection, sends cmd on it, and returns it to the Pool
// before returning cmd's typed result. This is the generic entry point the
// per-command convenience methods below are built on; callers with a
// command not covered by a convenience method can use it directly with any
// *command.Command[T] from package commands (or one of their own).
func Do[T any](ctx context.Context, c *Client, cmd *command.Command[T]) (T, error) {
	var zero T
	connVal, err := c.pool.Lease(ctx)
	if err != nil {
		return zero, err
	}
	result, err := conn.Send(ctx, connVal, cmd)
	if err != nil && !leavesConnectionHealthy(err) {
		c.pool.MarkBad(connVal)
	}
	c.pool.Return(connVal)
	return result, err
}

// leavesConnectionHealthy reports whether err leaves the Connection itself
// healthy: a well-formed reply the caller or mapper just didn't expect
// (ServerError, ConversionError), or the caller's own ctx giving up while
// the command is still in flight on the Connection's pipeline (conn.Send
// returns ctx.Err() in that case; the command itself, and any others queued
// behind it, are unaffected). Only a genuine transport/protocol failure
// leaves the Connection unreliable.
func leavesConnectionHealthy(err error) bool {
	if _, ok := err.(rediserr.ServerError); ok {
		return true
	}
	if _, ok := err.(*rediserr.ConversionError); ok {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Get issues GET key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return Do(ctx, c, commands.Get(key))
}

// Set issues SET key value.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	_, err := Do(ctx, c, commands.Set(key, value))
	return err
}

// Del issues DEL key [key ...].
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return Do(ctx, c, commands.Del(keys...))
}

// MGet issues MGET key [key ...].
func (c *Client) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	return Do(ctx, c, commands.MGet(keys...))
}

// HSet issues HSET key field value.
func (c *Client) HSet(ctx context.Context, key, field string, value []byte) (int64, error) {
	return Do(ctx, c, commands.HSet(key, field, value))
}

// HGet issues HGET key field.
func (c *Client) HGet(ctx context.Context, key, field string) ([]byte, error) {
	return Do(ctx, c, commands.HGet(key, field))
}

// HGetAll issues HGETALL key.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return Do(ctx, c, commands.HGetAll(key))
}

// Publish issues PUBLISH channel message.
func (c *Client) Publish(ctx context.Context, channel string, message []byte) (int64, error) {
	return Do(ctx, c, commands.Publish(channel, message))
}

// Subscribe establishes a channel or pattern subscription on a pinned
// pub/sub connection (§4.5 "Pub/sub connection pinning"); payloads are
// delivered to receiver on the Pool's reactor goroutine until Unsubscribe
// drops the subscription count to zero, at which point the pinned
// connection is returned to the general pool.
func (c *Client) Subscribe(ctx context.Context, kind pubsub.Kind, names []string, receiver pubsub.Receiver, onSubscribe pubsub.SubscribeNotify, onUnsubscribe pubsub.UnsubscribeNotify) error {
	return c.pool.Subscribe(ctx, kind, names, receiver, onSubscribe, onUnsubscribe)
}

// Unsubscribe issues UNSUBSCRIBE/PUNSUBSCRIBE on the pinned pub/sub
// connection, if one exists.
func (c *Client) Unsubscribe(ctx context.Context, kind pubsub.Kind, names []string) error {
	return c.pool.Unsubscribe(ctx, kind, names)
}

// Stats reports a snapshot of the underlying Pool's connection counts.
func (c *Client) Stats() pool.Stats {
	return c.pool.Stats()
}
