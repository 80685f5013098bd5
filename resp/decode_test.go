package resp

import (
	"testing"
)

func TestRoundTrip(t *testing.T) {
	golden := []Value{
		Simple("OK"),
		Err("ERR wrong number of arguments"),
		Int64(0),
		Int64(-1),
		Int64(9223372036854775807),
		Bulk([]byte("hello")),
		Bulk([]byte{}),
		NullBulk(),
		List(),
		List(Bulk([]byte("a")), Bulk([]byte("b"))),
		List(Int64(1), Int64(2), Int64(3), Bulk([]byte("foobar"))),
		NullArray(),
		List(List(Int64(1), Int64(2)), List(Simple("x"))),
	}

	d := &Decoder{}
	for _, v := range golden {
		wire := Encode(v)

		// Partial prefixes must all report ErrNeedMore until the boundary.
		for n := 0; n < len(wire); n++ {
			got, consumed, err := d.Decode(wire[:n])
			if err != ErrNeedMore {
				t.Errorf("%s: prefix len %d: got err %v, want ErrNeedMore", v.Kind, n, err)
			}
			if consumed != 0 {
				t.Errorf("%s: prefix len %d: consumed %d bytes on partial input", v.Kind, n, consumed)
			}
			_ = got
		}

		got, consumed, err := d.Decode(wire)
		if err != nil {
			t.Fatalf("%s: decode full wire: %v", v.Kind, err)
		}
		if consumed != len(wire) {
			t.Errorf("%s: consumed %d, want %d", v.Kind, consumed, len(wire))
		}
		if !got.Equal(v) {
			t.Errorf("%s: got %+v, want %+v", v.Kind, got, v)
		}
	}
}

func TestDecodeRemainder(t *testing.T) {
	d := &Decoder{}
	wire := append(Encode(Simple("OK")), Encode(Int64(42))...)

	first, n, err := d.Decode(wire)
	if err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if !first.Equal(Simple("OK")) {
		t.Fatalf("got %+v", first)
	}

	second, _, err := d.Decode(wire[n:])
	if err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if !second.Equal(Int64(42)) {
		t.Fatalf("got %+v", second)
	}
}

func TestDecodeMalformed(t *testing.T) {
	d := &Decoder{}
	cases := []string{
		"@foo\r\n",         // bad prefix
		"$abc\r\nfoo\r\n",  // non-numeric length
		":abc\r\n",         // non-numeric integer
		"$-2\r\n",          // negative length other than -1
		"$2\r\nhiXX\r\n",   // body doesn't end where the announced length says
	}
	for _, c := range cases {
		_, _, err := d.Decode([]byte(c))
		if err == nil {
			t.Errorf("%q: expected malformed error, got nil", c)
			continue
		}
		if err == ErrNeedMore {
			t.Errorf("%q: expected malformed error, got ErrNeedMore", c)
		}
	}
}

func TestDecodeMaxDepth(t *testing.T) {
	// Build an Array nested one level deeper than the configured bound.
	d := &Decoder{MaxDepth: 2}
	inner := List(Int64(1))
	for i := 0; i < 3; i++ {
		inner = List(inner)
	}
	_, _, err := d.Decode(Encode(inner))
	if err != ErrMaxDepth {
		t.Fatalf("got %v, want ErrMaxDepth", err)
	}
}
