package pool

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/xenking/gorest-redis/internal/conn"
	"github.com/xenking/gorest-redis/rediserr"
)

type pipeTransport struct{ net.Conn }

// fakeDialer returns a net.Pipe-backed Transport per dial; the server half
// is left unread (fine, since the tests never issue commands that need a
// handshake round-trip: Password/InitialDatabase stay zero-valued).
func fakeDialer(calls chan<- string) conn.Dialer {
	return func(_ context.Context, addr string) (conn.Transport, error) {
		client, _ := net.Pipe()
		if calls != nil {
			calls <- addr
		}
		return pipeTransport{client}, nil
	}
}

func TestLeaseCapHardSuspendsAndResumes(t *testing.T) {
	p := New(Config{
		MaxConnections: 1,
		Cap:            HardCap,
		Dialer:         fakeDialer(nil),
		Addresses:      []string{"127.0.0.1:6379"},
	})
	defer p.Close()

	ctx := context.Background()
	first, err := p.Lease(ctx)
	if err != nil {
		t.Fatalf("first lease: %v", err)
	}

	secondCh := make(chan *conn.Connection, 1)
	go func() {
		c, err := p.Lease(ctx)
		if err != nil {
			t.Errorf("second lease: %v", err)
			return
		}
		secondCh <- c
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-secondCh:
		t.Fatal("expected second lease to suspend while pool is at hard cap")
	default:
	}

	p.Return(first)

	select {
	case c := <-secondCh:
		if c != first {
			t.Fatalf("expected second lease to resolve with the returned connection")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second lease never resolved after return")
	}
}

func TestPendingLeaseBoundFastFails(t *testing.T) {
	p := New(Config{
		MaxConnections:    1,
		Cap:               HardCap,
		PendingLeaseBound: 5,
		Dialer:            fakeDialer(nil),
		// No addresses configured at all: every lease call queues.
	})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 5; i++ {
		go func() { _, _ = p.Lease(ctx) }()
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.Stats().Pending < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("pending never reached 5, got %d", p.Stats().Pending)
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, err := p.Lease(context.Background())
	if err != rediserr.ErrNoAvailableConnectionTarget {
		t.Fatalf("got %v, want ErrNoAvailableConnectionTarget", err)
	}
}

func TestPoolCloseFailsPendingWithPoolClosed(t *testing.T) {
	p := New(Config{
		MaxConnections: 1,
		Dialer:         fakeDialer(nil),
		// No addresses: the lease call below queues rather than resolving.
	})

	ctx := context.Background()
	errCh := make(chan error, 1)
	go func() {
		_, err := p.Lease(ctx)
		errCh <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for p.Stats().Pending < 1 {
		if time.Now().After(deadline) {
			t.Fatal("lease never reached pending state")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case err := <-errCh:
		if err != rediserr.ErrPoolClosed {
			t.Fatalf("got %v, want ErrPoolClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending lease never resolved after close")
	}
}

// manualDiscovery is a Discovery whose update stream the test drives by
// hand and never closes, so the pool does not self-close mid-test the way
// it would with Static's single-shot-then-closed stream.
type manualDiscovery struct{ ch chan []string }

func newManualDiscovery() *manualDiscovery { return &manualDiscovery{ch: make(chan []string, 1)} }
func (d *manualDiscovery) Updates() <-chan []string { return d.ch }

func TestDiscoveryUpdateUnblocksQueuedLease(t *testing.T) {
	disc := newManualDiscovery()
	p := New(Config{
		MaxConnections: 1,
		Dialer:         fakeDialer(nil),
		Discovery:      disc,
	})
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	leaseCh := make(chan error, 1)
	go func() {
		_, err := p.Lease(ctx)
		leaseCh <- err
	}()

	deadline := time.Now().Add(time.Second)
	for p.Stats().Pending < 1 {
		if time.Now().After(deadline) {
			t.Fatal("lease never queued while no addresses were known")
		}
		time.Sleep(5 * time.Millisecond)
	}

	disc.ch <- []string{"127.0.0.1:6379"}

	if err := <-leaseCh; err != nil {
		t.Fatalf("lease after discovery update: %v", err)
	}
}

func TestStaticDiscoveryCompletionSelfCloses(t *testing.T) {
	p := New(Config{
		MaxConnections: 1,
		Dialer:         fakeDialer(nil),
		Discovery:      NewStatic([]string{"127.0.0.1:6379"}),
	})

	if _, err := p.Lease(context.Background()); err != nil {
		t.Fatalf("first lease: %v", err)
	}

	// The pool is already saturated (MaxConnections=1), so this call cannot
	// get a Connection; it fails with ErrPoolClosed once the pool has
	// self-closed after its Discovery source (a single-shot Static list)
	// completes: at once if the self-close already ran, otherwise after
	// waiting in the lease queue.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := p.Lease(ctx); err != rediserr.ErrPoolClosed {
		t.Fatalf("got %v, want ErrPoolClosed after discovery completion", err)
	}

	// Per §4.5, self-close on discovery completion does not relieve the
	// caller of calling Close explicitly to be safe.
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestTargetListRoundRobin(t *testing.T) {
	var tl targetList
	tl.update([]string{"A", "B", "C"})

	var got []string
	for i := 0; i < 4; i++ {
		addr, ok := tl.peek()
		if !ok {
			t.Fatal("expected an address")
		}
		got = append(got, addr)
		tl.advance()
	}

	want := []string{"A", "B", "C", "A"}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("call %d: got %q, want %q (full: %v)", i, got[i], w, got)
		}
	}
}
