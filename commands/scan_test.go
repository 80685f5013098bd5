package commands

import (
	"bytes"
	"testing"

	"github.com/xenking/gorest-redis/resp"
)

func TestScanEncodingWithOptions(t *testing.T) {
	cmd := Scan("0", ScanOptions{Match: "k*", Count: 50})
	got := resp.EncodeCommand(cmd.Keyword(), cmd.Args()...)
	want := []byte("*6\r\n$4\r\nSCAN\r\n$1\r\n0\r\n$5\r\nMATCH\r\n$2\r\nk*\r\n$5\r\nCOUNT\r\n$2\r\n50\r\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("encoding mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestScanEncodingNoOptions(t *testing.T) {
	cmd := Scan("12", ScanOptions{})
	got := resp.EncodeCommand(cmd.Keyword(), cmd.Args()...)
	want := []byte("*2\r\n$4\r\nSCAN\r\n$2\r\n12\r\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("encoding mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestScanPageMapping(t *testing.T) {
	cmd := Scan("0", ScanOptions{})
	v := resp.List(
		resp.Bulk([]byte("17")),
		resp.List(resp.Bulk([]byte("a")), resp.Bulk([]byte("b"))),
	)
	page, err := cmd.Map(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Cursor != "17" {
		t.Fatalf("expected cursor 17, got %q", page.Cursor)
	}
	if len(page.Items) != 2 || page.Items[0] != "a" || page.Items[1] != "b" {
		t.Fatalf("got %v", page.Items)
	}
}
