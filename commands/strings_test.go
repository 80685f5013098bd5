package commands

import (
	"bytes"
	"testing"

	"github.com/xenking/gorest-redis/resp"
)

func TestGetEncoding(t *testing.T) {
	cmd := Get("k")
	got := resp.EncodeCommand(cmd.Keyword(), cmd.Args()...)
	want := []byte("*2\r\n$3\r\nGET\r\n$1\r\nk\r\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("encoding mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestMGetPreservesNilEntries(t *testing.T) {
	cmd := MGet("a", "b")
	v := resp.List(resp.Bulk([]byte("va")), resp.NullBulk())
	got, err := cmd.Map(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || string(got[0]) != "va" || got[1] != nil {
		t.Fatalf("got %v", got)
	}
}
