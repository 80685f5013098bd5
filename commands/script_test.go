package commands

import (
	"bytes"
	"testing"

	"github.com/xenking/gorest-redis/resp"
)

func TestEvalEncoding(t *testing.T) {
	cmd := Eval("return 1", []string{"k1"}, []string{"a1"})
	got := resp.EncodeCommand(cmd.Keyword(), cmd.Args()...)
	want := []byte("*5\r\n$4\r\nEVAL\r\n$8\r\nreturn 1\r\n$1\r\n1\r\n$2\r\nk1\r\n$2\r\na1\r\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("encoding mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestSha1HexKnownVector(t *testing.T) {
	// sha1("return 1") is a fixed, well-known digest; EVALSHA relies on the
	// client computing exactly what Redis's own SCRIPT LOAD would.
	got := sha1Hex("return 1")
	want := "e0e1f9fabfc9d4800c877a703b823ac0578ff8db"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestScriptLoadEncoding(t *testing.T) {
	cmd := ScriptLoad("return 1")
	got := resp.EncodeCommand(cmd.Keyword(), cmd.Args()...)
	want := []byte("*3\r\n$6\r\nSCRIPT\r\n$4\r\nLOAD\r\n$8\r\nreturn 1\r\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("encoding mismatch:\n got  %q\n want %q", got, want)
	}
	sha, err := cmd.Map(resp.Simple("e0e1f9fabfc9d4800c877a703b823ac0578ff8db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sha != "e0e1f9fabfc9d4800c877a703b823ac0578ff8db" {
		t.Fatalf("got %q", sha)
	}
}
