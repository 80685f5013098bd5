package commands

import (
	"bytes"
	"testing"

	"github.com/xenking/gorest-redis/resp"
)

func TestHSetEncoding(t *testing.T) {
	cmd := HSet("h", "f", []byte("v"))
	got := resp.EncodeCommand(cmd.Keyword(), cmd.Args()...)
	want := []byte("*4\r\n$4\r\nHSET\r\n$1\r\nh\r\n$1\r\nf\r\n$1\r\nv\r\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("encoding mismatch:\n got  %q\n want %q", got, want)
	}
}

// TestHGetAllMapping matches §8 testable property 3: a flat field/value
// array maps to a Go map.
func TestHGetAllMapping(t *testing.T) {
	cmd := HGetAll("h")
	v := resp.List(
		resp.Bulk([]byte("f1")), resp.Bulk([]byte("v1")),
		resp.Bulk([]byte("f2")), resp.Bulk([]byte("v2")),
	)
	m, err := cmd.Map(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 2 || m["f1"] != "v1" || m["f2"] != "v2" {
		t.Fatalf("got %v", m)
	}
}

func TestHGetMissingFieldMapsNil(t *testing.T) {
	cmd := HGet("h", "missing")
	b, err := cmd.Map(resp.NullBulk())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != nil {
		t.Fatalf("expected nil, got %v", b)
	}
}
