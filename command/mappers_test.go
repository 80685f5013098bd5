package command

import (
	"testing"

	"github.com/xenking/gorest-redis/resp"
)

func TestMapStringMapHashResponse(t *testing.T) {
	v := resp.List(
		resp.Bulk([]byte("k1")), resp.Bulk([]byte("v1")),
		resp.Bulk([]byte("k2")), resp.Bulk([]byte("v2")),
	)
	m, err := MapStringMap(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 2 || m["k1"] != "v1" || m["k2"] != "v2" {
		t.Fatalf("got %v", m)
	}
}

func TestMapStringMapOddLength(t *testing.T) {
	v := resp.List(resp.Bulk([]byte("k1")), resp.Bulk([]byte("v1")), resp.Bulk([]byte("k2")))
	if _, err := MapStringMap(v); err == nil {
		t.Fatal("expected error for odd-length array")
	}
}

func TestMapIntegerServerError(t *testing.T) {
	_, err := MapInteger(resp.Err("ERR boom"))
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(interface{ Prefix() string }); !ok {
		t.Fatalf("expected a ServerError-shaped error, got %T", err)
	}
}

func TestMapBulkNull(t *testing.T) {
	b, err := MapBulk(resp.NullBulk())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != nil {
		t.Fatalf("expected nil, got %v", b)
	}
}
