package commands

import (
	"testing"

	"github.com/xenking/gorest-redis/resp"
)

// TestBLPopTimeoutMapsNil matches §8 testable property 9: a timed-out
// blocking pop maps to a nil result, not an error.
func TestBLPopTimeoutMapsNil(t *testing.T) {
	cmd := BLPop(1, "q")
	kv, err := cmd.Map(resp.NullArray())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kv != nil {
		t.Fatalf("expected nil on timeout, got %+v", kv)
	}
}

func TestBLPopSuccessMapping(t *testing.T) {
	cmd := BLPop(0, "q")
	v := resp.List(resp.Bulk([]byte("q")), resp.Bulk([]byte("payload")))
	kv, err := cmd.Map(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kv == nil || kv.Key != "q" || string(kv.Value) != "payload" {
		t.Fatalf("got %+v", kv)
	}
}

func TestBZPopMinSuccessMapping(t *testing.T) {
	cmd := BZPopMin(0, "z")
	v := resp.List(resp.Bulk([]byte("z")), resp.Bulk([]byte("m")), resp.Bulk([]byte("3.5")))
	r, err := cmd.Map(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r == nil || r.Key != "z" || r.Member != "m" || r.Score != 3.5 {
		t.Fatalf("got %+v", r)
	}
}
