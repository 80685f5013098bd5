package redis

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/xenking/gorest-redis/internal/conn"
	"github.com/xenking/gorest-redis/pool"
)

func TestNormalizeAddr(t *testing.T) {
	golden := []struct{ Addr, Normal string }{
		{"", "localhost:6379"},
		{":", "localhost:6379"},
		{"test.host", "test.host:6379"},
		{"test.host:", "test.host:6379"},
		{":99", "localhost:99"},
		{"/var/redis/../run/redis.sock", "/var/run/redis.sock"},
	}
	for _, gold := range golden {
		if got := normalizeAddr(gold.Addr); got != gold.Normal {
			t.Errorf("got %q for %q, want %q", got, gold.Addr, gold.Normal)
		}
	}
}

type pipeTransport struct{ net.Conn }

// serverEcho answers the one command a test issues with a fixed reply: it
// reads whatever the client has written so far, then writes reply. Tests
// built on this helper issue exactly one command per Client.
func serverEcho(t *testing.T, server net.Conn, reply []byte) {
	t.Helper()
	go func() {
		buf := make([]byte, 4096)
		r := bufio.NewReader(server)
		_, _ = r.Read(buf)
		_, _ = server.Write(reply)
	}()
}

func newTestClient(t *testing.T, reply []byte) *Client {
	t.Helper()
	client, server := net.Pipe()
	serverEcho(t, server, reply)

	dialer := func(_ context.Context, _ string) (conn.Transport, error) {
		return pipeTransport{client}, nil
	}

	p := pool.New(pool.Config{
		MaxConnections: 1,
		Dialer:         dialer,
		Addresses:      []string{"127.0.0.1:6379"},
	})
	t.Cleanup(func() { p.Close() })
	return &Client{pool: p}
}

func TestClientGetRoundTrip(t *testing.T) {
	c := newTestClient(t, []byte("$5\r\nhello\r\n"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestClientSetRoundTrip(t *testing.T) {
	c := newTestClient(t, []byte("+OK\r\n"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientLeaseAfterCloseFailsWithPoolClosed(t *testing.T) {
	c := newTestClient(t, []byte("+OK\r\n"))
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := c.Get(ctx, "k"); err != ErrPoolClosed {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}
