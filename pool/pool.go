// Package pool implements the event-loop-bound connection Pool (§4.5): a
// population of internal/conn.Connections held in [min,max], leased to
// callers, retried with backoff on dial failure, rotated across a
// round-robin target list, and optionally driven by a Discovery source.
// Like internal/conn, the Pool is bound to a single reactor goroutine and
// every public method hops onto it (§5, §9 "Thread hopping").
package pool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/xenking/gorest-redis/internal/conn"
	"github.com/xenking/gorest-redis/internal/ids"
	"github.com/xenking/gorest-redis/internal/logging"
	"github.com/xenking/gorest-redis/internal/reactor"
	"github.com/xenking/gorest-redis/pubsub"
	"github.com/xenking/gorest-redis/rediserr"
)

type leaseResult struct {
	conn *conn.Connection
	err  error
}

// Pool is the event-loop-bound connection pool of §4.5. All fields below
// the reactor line are touched only from react's goroutine.
type Pool struct {
	ID  string
	cfg Config

	react *reactor.Reactor
	log   logging.Logging

	targets targetList

	available []*conn.Connection
	leased    map[*conn.Connection]struct{}
	bad       map[*conn.Connection]struct{}

	// dialing counts Connections currently being dialed (kicked off by
	// dialAndLease but not yet resolved either way). canCreateNew must
	// count these alongside available/leased, or HardCap can be exceeded:
	// a dial in flight holds neither slot yet concurrent Lease callers
	// would otherwise see room for another one (§3 HardCap invariant).
	dialing int
	// dialCancel stops a resultCh's in-flight dial/retry loop. abandonLease
	// calls it once a Lease caller has given up, so an unreachable target
	// (RetryBudget == 0 retries forever by design) doesn't hold a dialing
	// slot against HardCap on behalf of nobody still waiting.
	dialCancel map[chan leaseResult]context.CancelFunc

	pubsubConn *conn.Connection

	pendingLease []chan leaseResult
	leaseSem     *semaphore.Weighted

	// abandoned marks resultCh channels whose Lease caller already gave up
	// (ctx cancelled) before a Connection was assigned, so a dial that
	// completes afterward reclaims the Connection into the pool instead of
	// leasing it to a caller that will never read it.
	abandoned map[chan leaseResult]struct{}

	// pubsubWanted marks resultCh channels that acquirePubSubConn is
	// waiting on: when one resolves with a Connection, deliverLease pins it
	// as pubsubConn instead of leasing it normally. Checked and mutated
	// only on the reactor, so two concurrent Subscribe calls racing to pin
	// the first pub/sub Connection can never both win (§4.5 "Pub/Sub
	// pinning").
	pubsubWanted map[chan leaseResult]struct{}

	closed       bool
	discoveryCtx context.CancelFunc
}

// New constructs a Pool and, if Config.Discovery is set, starts consuming
// its address-update stream. Unlike a Connection, a Pool owns its own
// reactor (Connections it creates are bound to that same reactor, per §5
// "Connections also belong to the Pool's reactor thread").
func New(cfg Config) *Pool {
	discovery := cfg.Discovery
	cfg = cfg.WithDefaults()

	p := &Pool{
		ID:           ids.New(),
		cfg:          cfg,
		react:        reactor.New(),
		log:          cfg.Log,
		leased:       make(map[*conn.Connection]struct{}),
		bad:          make(map[*conn.Connection]struct{}),
		leaseSem:     semaphore.NewWeighted(int64(cfg.PendingLeaseBound)),
		abandoned:    make(map[chan leaseResult]struct{}),
		pubsubWanted: make(map[chan leaseResult]struct{}),
		dialCancel:   make(map[chan leaseResult]context.CancelFunc),
		discoveryCtx: func() {},
	}

	if len(cfg.Addresses) > 0 {
		p.targets.update(cfg.Addresses)
	}

	// Only a caller-supplied Discovery drives self-close on completion
	// (§4.5): a pool given a plain static address list has no discovery
	// source to exhaust, and must stay up until Close is called explicitly.
	if discovery != nil {
		discCtx, cancel := context.WithCancel(context.Background())
		p.discoveryCtx = cancel
		go p.watchDiscovery(discCtx, discovery)
	}

	for i := 0; i < cfg.MinConnections; i++ {
		p.react.Post(func() { p.spawnToFloor() })
	}

	return p
}

func (p *Pool) watchDiscovery(ctx context.Context, discovery Discovery) {
	updates := discovery.Updates()
	for {
		select {
		case addrs, ok := <-updates:
			if !ok {
				// Discovery source is done; the pool begins self-close, but
				// per §4.5 the caller must still call Close explicitly to
				// be safe (breaking the factory reference cycle, §9).
				p.react.Post(func() { p.beginSelfClose() })
				return
			}
			p.UpdateAddresses(addrs)
		case <-ctx.Done():
			return
		}
	}
}

// UpdateAddresses replaces the target list and flushes pending-lease
// waiters against the new targets (§4.5).
func (p *Pool) UpdateAddresses(addrs []string) {
	done := make(chan struct{})
	p.react.Post(func() {
		p.targets.update(addrs)
		p.drainPending()
		close(done)
	})
	<-done
}

// Lease returns a Connection from the idle set, creates one if under cap,
// or queues the caller until one is available or the pending-lease bound
// is hit (§4.5 "Lease discipline", §3 invariants).
func (p *Pool) Lease(ctx context.Context) (*conn.Connection, error) {
	resultCh := make(chan leaseResult, 1)
	p.react.Post(func() { p.doLease(resultCh) })

	select {
	case r := <-resultCh:
		return r.conn, r.err
	case <-ctx.Done():
		p.react.Post(func() { p.abandonLease(resultCh) })
		return nil, ctx.Err()
	}
}

// abandonLease runs on the reactor after a Lease call's context expired
// before resultCh produced anything the caller could still read. If the
// request is still queued, it is dequeued (releasing its leaseSem slot) so
// no Connection is ever dialed for it. If a Connection already arrived (or
// arrives later, e.g. a dial that was already in flight), it is returned to
// the pool instead of being leased to nobody (§3 invariant: every leased
// Connection is eventually returned).
func (p *Pool) abandonLease(resultCh chan leaseResult) {
	for i, rc := range p.pendingLease {
		if rc == resultCh {
			p.pendingLease = append(p.pendingLease[:i], p.pendingLease[i+1:]...)
			p.leaseSem.Release(1)
			return
		}
	}
	select {
	case r := <-resultCh:
		if r.conn != nil {
			p.doReturn(r.conn)
		}
	default:
		// Still in flight: a background dial hasn't posted its result yet.
		// Stop it rather than let it keep retrying (RetryBudget == 0 means
		// forever, by design) against a target nobody is waiting on anymore;
		// it still holds a dialing slot toward HardCap until it exits.
		p.abandoned[resultCh] = struct{}{}
		if cancel, ok := p.dialCancel[resultCh]; ok {
			cancel()
		}
	}
}

// deliverLease sends result to resultCh, unless its Lease caller already
// abandoned it (see abandonLease): in that case a delivered Connection is
// returned to the pool instead of being leased to nobody.
func (p *Pool) deliverLease(resultCh chan leaseResult, result leaseResult) {
	if _, gone := p.abandoned[resultCh]; gone {
		delete(p.abandoned, resultCh)
		if result.conn != nil {
			p.doReturn(result.conn)
		}
		return
	}
	if _, wantPin := p.pubsubWanted[resultCh]; wantPin {
		delete(p.pubsubWanted, resultCh)
		resultCh <- p.resolvePubSubPin(result)
		return
	}
	if result.conn != nil {
		p.leased[result.conn] = struct{}{}
	}
	resultCh <- result
}

// resolvePubSubPin pins result.conn as the pool's pub/sub Connection if none
// is pinned yet. Otherwise a second acquirePubSubConn call already won the
// race: result.conn (leased or dialed before this call observed that) is
// returned to the general pool instead, and the already-pinned Connection is
// handed back in its place. Only ever runs on the reactor, so the two
// concurrent callers that motivate this check can never both win.
func (p *Pool) resolvePubSubPin(result leaseResult) leaseResult {
	if result.err != nil || result.conn == nil {
		return result
	}
	if p.pubsubConn == nil {
		p.pubsubConn = result.conn
		result.conn.SetSubscriptionsAllowedNow(true)
		return result
	}
	if result.conn != p.pubsubConn {
		p.doReturn(result.conn)
	}
	return leaseResult{conn: p.pubsubConn}
}

func (p *Pool) doLease(resultCh chan leaseResult) {
	if p.closed {
		p.deliverLease(resultCh, leaseResult{err: rediserr.ErrPoolClosed})
		return
	}
	if resolved, noTargets := p.attemptLease(resultCh); resolved {
		return
	} else if !p.leaseSem.TryAcquire(1) {
		if noTargets {
			p.deliverLease(resultCh, leaseResult{err: rediserr.ErrNoAvailableConnectionTarget})
		} else {
			p.deliverLease(resultCh, leaseResult{err: rediserr.ErrLeaseQueueFull})
		}
		return
	}
	p.pendingLease = append(p.pendingLease, resultCh)
}

// attemptLease tries to resolve resultCh immediately: from the idle set, or
// by dialing a new Connection if under cap and a target is available. It
// reports whether it resolved (synchronously or by kicking off an async
// dial) and, if not, whether the block is due to an empty target list
// specifically (which §7 distinguishes as NoAvailableConnectionTarget
// rather than the generic LeaseQueueFull).
func (p *Pool) attemptLease(resultCh chan leaseResult) (resolved, noTargets bool) {
	if c, ok := p.popAvailable(); ok {
		p.deliverLease(resultCh, leaseResult{conn: c})
		return true, false
	}
	if !p.canCreateNew() {
		return false, false
	}
	if _, ok := p.targets.peek(); !ok {
		return false, true
	}
	// Snapshot before advancing: idx must name the slot just peeked, not
	// the slot the *next* caller will get (§8 testable property 8).
	snapshot, idx := p.targets.snapshot()
	p.targets.advance()
	p.dialAndLease(snapshot, idx, resultCh)
	return true, false
}

// popAvailable pops a usable idle Connection, discarding any that fail the
// configured health check (§3 "Connection health / PING keepalive") as it
// goes rather than handing a stale Connection to a caller.
func (p *Pool) popAvailable() (*conn.Connection, bool) {
	for len(p.available) > 0 {
		n := len(p.available) - 1
		c := p.available[n]
		p.available = p.available[:n]
		if c.StateNow() == conn.StateClosed {
			delete(p.bad, c)
			continue
		}
		if p.cfg.CheckHealth != nil {
			if err := p.cfg.CheckHealth(c); err != nil {
				p.log.Printf(context.Background(), "redis: pool %s discarding unhealthy connection %s: %v", p.ID, c.ID, err)
				c.CloseNow()
				continue
			}
		}
		return c, true
	}
	return nil, false
}

func (p *Pool) canCreateNew() bool {
	total := len(p.available) + len(p.leased) + p.dialing
	switch p.cfg.Cap {
	case SoftCap:
		return true
	default: // HardCap
		return total < p.cfg.MaxConnections
	}
}

// dialAndLease dials addrs[idx], retrying subsequent addresses from the
// snapshot with exponential backoff on failure (§4.5 "Retry"), off the
// reactor goroutine (dialing blocks); the outcome is posted back. The retry
// loop is bound to a cancellable context so abandonLease can stop it the
// moment its Lease caller gives up, rather than let it keep retrying
// forever (RetryBudget == 0, by design) against a target nobody is waiting
// on anymore while still holding a dialing slot toward HardCap.
func (p *Pool) dialAndLease(addrs []string, idx int, resultCh chan leaseResult) {
	loopCtx, cancel := context.WithCancel(context.Background())
	// Counted while the dial is in flight so canCreateNew sees it (§3
	// HardCap invariant); released exactly once, by whichever branch below
	// posts the terminal outcome back to the reactor.
	p.dialing++
	p.dialCancel[resultCh] = cancel
	finish := func(result leaseResult) {
		p.react.Post(func() {
			p.dialing--
			delete(p.dialCancel, resultCh)
			p.deliverLease(resultCh, result)
		})
	}
	go func() {
		defer cancel()
		attempt := 0
		for {
			addr := addrs[idx%len(addrs)]
			dialCtx, dialCancel := context.WithTimeout(loopCtx, p.cfg.DialTimeout)
			transport, err := p.cfg.Dialer(dialCtx, addr)
			dialCancel()

			if err == nil {
				connCfg := p.cfg.ConnTemplate
				connCfg.Address = addr
				c := conn.New(connCfg, transport, p.react, p.log)
				if herr := c.Handshake(context.Background()); herr != nil {
					err = herr
				} else {
					finish(leaseResult{conn: c})
					return
				}
			}
			if loopCtx.Err() != nil {
				// abandonLease already cancelled this dial; no Lease
				// caller is waiting on the outcome anymore.
				finish(leaseResult{err: loopCtx.Err()})
				return
			}

			attempt++
			delay := backoffDelay(p.cfg.InitialDelay, p.cfg.BackoffFactor, attempt, p.cfg.MaxDelay)
			p.log.Printf(context.Background(), "redis: pool %s dial %s failed (attempt %d): %v, retrying in %s", p.ID, addr, attempt, err, delay)
			if p.cfg.RetryBudget > 0 && attempt >= p.cfg.RetryBudget {
				finish(leaseResult{err: err})
				return
			}
			select {
			case <-time.After(delay):
			case <-loopCtx.Done():
				finish(leaseResult{err: loopCtx.Err()})
				return
			}
			idx++
		}
	}()
}

// spawnToFloor eagerly grows the pool toward MinConnections at construction
// time, ignoring failures (a later Lease call will retry).
func (p *Pool) spawnToFloor() {
	if _, ok := p.targets.peek(); !ok {
		return
	}
	// Snapshot before advancing, same as attemptLease (§8 testable property 8).
	snapshot, idx := p.targets.snapshot()
	p.targets.advance()
	dummy := make(chan leaseResult, 1)
	p.dialAndLease(snapshot, idx, dummy)
	go func() {
		if r := <-dummy; r.conn != nil {
			p.Return(r.conn)
		}
	}()
}

// Return hands a leased Connection back to the idle set, unless the pool
// is closed, the connection is bad, or the pool is in soft-cap overflow
// (§4.5 "Lease discipline").
func (p *Pool) Return(c *conn.Connection) {
	p.react.Post(func() { p.doReturn(c) })
}

func (p *Pool) doReturn(c *conn.Connection) {
	delete(p.leased, c)

	if p.closed || c.StateNow() == conn.StateClosed {
		delete(p.bad, c)
		p.drainPending()
		return
	}
	if _, bad := p.bad[c]; bad {
		delete(p.bad, c)
		c.CloseNow()
		p.drainPending()
		return
	}
	if p.cfg.Cap == SoftCap && len(p.available) >= p.cfg.MaxConnections {
		c.CloseNow()
		p.drainPending()
		return
	}

	p.available = append(p.available, c)
	p.drainPending()
}

// MarkBad flags c so the next Return discards it instead of recycling it
// into the idle set (used by callers that detect a Connection misbehaving
// without it having failed outright).
func (p *Pool) MarkBad(c *conn.Connection) {
	p.react.Post(func() { p.bad[c] = struct{}{} })
}

// drainPending resolves queued Lease waiters in FIFO order as capacity or
// targets become available, stopping at the first waiter that still can't
// be resolved (preserving queue order rather than resolving out of turn).
func (p *Pool) drainPending() {
	for len(p.pendingLease) > 0 {
		rc := p.pendingLease[0]
		resolved, _ := p.attemptLease(rc)
		if !resolved {
			break
		}
		p.pendingLease = p.pendingLease[1:]
		p.leaseSem.Release(1)
	}
}

// Subscribe pins a Connection for pub/sub use on first call, reusing it on
// subsequent calls (§4.5 "Pub/Sub pinning").
func (p *Pool) Subscribe(ctx context.Context, kind pubsub.Kind, names []string, receiver pubsub.Receiver, onSubscribe pubsub.SubscribeNotify, onUnsubscribe pubsub.UnsubscribeNotify) error {
	c, err := p.acquirePubSubConn(ctx)
	if err != nil {
		return err
	}
	return c.Subscribe(ctx, kind, names, receiver, onSubscribe, func(count int64, reason string) {
		if onUnsubscribe != nil {
			onUnsubscribe(count, reason)
		}
		p.maybeUnpinPubSub(count)
	})
}

// Unsubscribe issues UNSUBSCRIBE/PUNSUBSCRIBE on the pinned pub/sub
// Connection, if one exists.
func (p *Pool) Unsubscribe(ctx context.Context, kind pubsub.Kind, names []string) error {
	resultCh := make(chan *conn.Connection, 1)
	p.react.Post(func() { resultCh <- p.pubsubConn })
	c := <-resultCh
	if c == nil {
		return rediserr.ErrSubscribeNotAllowed
	}
	return c.Unsubscribe(ctx, kind, names)
}

// acquirePubSubConn returns the pinned pub/sub Connection, leasing and
// pinning one if none exists yet. The lease and the pin decision happen in
// the same reactor tick (via pubsubWanted/resolvePubSubPin) so that two
// Subscribe calls racing before any Connection is pinned cannot both pin a
// different Connection and leak the loser (§4.5 "Pub/Sub pinning").
func (p *Pool) acquirePubSubConn(ctx context.Context) (*conn.Connection, error) {
	resultCh := make(chan leaseResult, 1)
	p.react.Post(func() {
		if p.pubsubConn != nil {
			resultCh <- leaseResult{conn: p.pubsubConn}
			return
		}
		p.pubsubWanted[resultCh] = struct{}{}
		p.doLease(resultCh)
	})

	select {
	case r := <-resultCh:
		if r.err != nil {
			return nil, r.err
		}
		return r.conn, nil
	case <-ctx.Done():
		p.react.Post(func() {
			delete(p.pubsubWanted, resultCh)
			p.abandonLease(resultCh)
		})
		return nil, ctx.Err()
	}
}

// maybeUnpinPubSub clears the pub/sub pin once the last subscription ends
// (count reaches 0) and returns the Connection to the idle pool (§4.5).
func (p *Pool) maybeUnpinPubSub(count int64) {
	if count != 0 {
		return
	}
	p.react.Post(func() {
		c := p.pubsubConn
		if c == nil {
			return
		}
		p.pubsubConn = nil
		c.SetSubscriptionsAllowedNow(false)
		p.doReturn(c)
	})
}

// Close closes every Connection the pool holds, fails every pending lease
// waiter with PoolClosed, and stops the discovery watcher, breaking the
// pool↔factory reference cycle described in §9. The reactor goroutine is
// deliberately left running (rather than stopped) so that Lease calls
// issued after Close still round-trip and observe ErrPoolClosed instead of
// blocking forever on a dropped post.
func (p *Pool) Close() error {
	p.discoveryCtx()
	done := make(chan struct{})
	p.react.Post(func() {
		p.beginSelfClose()
		close(done)
	})
	<-done
	return nil
}

func (p *Pool) beginSelfClose() {
	if p.closed {
		return
	}
	p.closed = true
	for _, rc := range p.pendingLease {
		rc <- leaseResult{err: rediserr.ErrPoolClosed}
	}
	p.pendingLease = nil

	for _, c := range p.available {
		c.CloseNow()
	}
	p.available = nil
	for c := range p.leased {
		c.CloseNow()
	}
	p.leased = make(map[*conn.Connection]struct{})
	if p.pubsubConn != nil {
		p.pubsubConn.CloseNow()
		p.pubsubConn = nil
	}
}

// Stats is a point-in-time snapshot of pool population, useful for tests
// and metrics.
type Stats struct {
	Available int
	Leased    int
	Pending   int
}

// Stats reports a snapshot of the pool's population.
func (p *Pool) Stats() Stats {
	var wg sync.WaitGroup
	wg.Add(1)
	var s Stats
	p.react.Post(func() {
		s = Stats{Available: len(p.available), Leased: len(p.leased), Pending: len(p.pendingLease)}
		wg.Done()
	})
	wg.Wait()
	return s
}
