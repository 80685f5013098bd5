// Package resp implements a streaming, restartable codec for the Redis
// Serialization Protocol (RESP). It converts between raw bytes and Value
// trees without ever blocking on I/O: the decoder is handed whatever bytes
// have arrived so far and reports whether it has a complete Value yet.
package resp

import "bytes"

// Kind identifies the RESP type tag of a Value.
type Kind int

const (
	// SimpleString is a "+OK\r\n" style reply.
	SimpleString Kind = iota
	// Error is a "-ERR ...\r\n" reply.
	Error
	// Integer is a ":123\r\n" reply.
	Integer
	// BulkString is a "$<len>\r\n<bytes>\r\n" reply, or "$-1\r\n" when Null.
	BulkString
	// Array is a "*<count>\r\n<item>..." reply, or "*-1\r\n" when Null.
	Array
)

func (k Kind) String() string {
	switch k {
	case SimpleString:
		return "SimpleString"
	case Error:
		return "Error"
	case Integer:
		return "Integer"
	case BulkString:
		return "BulkString"
	case Array:
		return "Array"
	default:
		return "Unknown"
	}
}

// Value is a tagged union over the five RESP reply shapes. Bulk strings and
// arrays carry an explicit Null distinct from an empty bulk/array.
type Value struct {
	Kind  Kind
	Str   string  // SimpleString / Error text
	Int   int64   // Integer value
	Bulk  []byte  // BulkString payload; meaningless when Null
	Items []Value // Array elements; meaningless when Null
	Null  bool    // true for a null BulkString or null Array
}

// Simple constructs a SimpleString Value.
func Simple(text string) Value { return Value{Kind: SimpleString, Str: text} }

// Err constructs an Error Value.
func Err(text string) Value { return Value{Kind: Error, Str: text} }

// Int64 constructs an Integer Value.
func Int64(v int64) Value { return Value{Kind: Integer, Int: v} }

// Bulk constructs a non-null BulkString Value. A nil slice becomes an empty
// (not null) bulk string; use NullBulk for the null case.
func Bulk(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Kind: BulkString, Bulk: b}
}

// BulkFromString constructs a BulkString Value from a Go string.
func BulkFromString(s string) Value { return Bulk([]byte(s)) }

// NullBulk constructs the null BulkString Value ("$-1\r\n").
func NullBulk() Value { return Value{Kind: BulkString, Null: true} }

// List constructs a non-null Array Value.
func List(items ...Value) Value { return Value{Kind: Array, Items: items} }

// NullArray constructs the null Array Value ("*-1\r\n").
func NullArray() Value { return Value{Kind: Array, Null: true} }

// IsNil reports whether v is a null bulk string or null array.
func (v Value) IsNil() bool {
	return (v.Kind == BulkString || v.Kind == Array) && v.Null
}

// Equal reports structural equality, distinguishing null from empty.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case SimpleString, Error:
		return v.Str == o.Str
	case Integer:
		return v.Int == o.Int
	case BulkString:
		if v.Null != o.Null {
			return false
		}
		if v.Null {
			return true
		}
		return bytes.Equal(v.Bulk, o.Bulk)
	case Array:
		if v.Null != o.Null {
			return false
		}
		if v.Null {
			return true
		}
		if len(v.Items) != len(o.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
