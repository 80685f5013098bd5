package commands

import (
	"bytes"
	"testing"

	"github.com/xenking/gorest-redis/resp"
)

// TestZAddEncoding matches §8 testable property 4: ZADD key NX CH score
// member serializes as an Array of BulkStrings in exactly that order.
func TestZAddEncoding(t *testing.T) {
	cmd := ZAdd("myset", []ZMember{{Score: 1, Member: "one"}}, ZInsertOnlyNew, ZReturnChanged)

	got := resp.EncodeCommand(cmd.Keyword(), cmd.Args()...)
	want := []byte("*6\r\n$4\r\nZADD\r\n$6\r\nmyset\r\n$2\r\nNX\r\n$2\r\nCH\r\n$1\r\n1\r\n$3\r\none\r\n")

	if !bytes.Equal(got, want) {
		t.Fatalf("encoding mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestZAddNoOptionalFlags(t *testing.T) {
	cmd := ZAdd("myset", []ZMember{{Score: 2.5, Member: "two"}}, ZInsertAny, ZReturnAdded)
	got := resp.EncodeCommand(cmd.Keyword(), cmd.Args()...)
	want := []byte("*4\r\n$4\r\nZADD\r\n$6\r\nmyset\r\n$3\r\n2.5\r\n$3\r\ntwo\r\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("encoding mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestZAddMultipleMembers(t *testing.T) {
	cmd := ZAdd("myset", []ZMember{
		{Score: 1, Member: "one"},
		{Score: 2, Member: "two"},
	}, ZInsertAny, ZReturnAdded)

	n, err := cmd.Map(resp.Int64(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestZRangeByScoreWithScoresMapping(t *testing.T) {
	cmd := ZRangeByScoreWithScores("myset", "-inf", "+inf")
	v := resp.List(
		resp.Bulk([]byte("one")), resp.Bulk([]byte("1")),
		resp.Bulk([]byte("two")), resp.Bulk([]byte("2")),
	)
	members, err := cmd.Map(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	if members[0].Member != "one" || members[0].Score != 1 {
		t.Fatalf("unexpected first member: %+v", members[0])
	}
	if members[1].Member != "two" || members[1].Score != 2 {
		t.Fatalf("unexpected second member: %+v", members[1])
	}
}
