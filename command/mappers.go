package command

import (
	"fmt"

	"github.com/xenking/gorest-redis/rediserr"
	"github.com/xenking/gorest-redis/resp"
)

// Identity returns the decoded Value unchanged, except for an Error-kind
// reply, which it still surfaces as a ServerError rather than handing back
// silently: callers that want the raw reply shape still need to learn a
// script failed (e.g. NOSCRIPT) rather than receive an error Value as if it
// were real script output.
func Identity(v resp.Value) (resp.Value, error) {
	if se, ok := rediserr.AsServerError(v); ok {
		return v, se
	}
	return v, nil
}

// MapOK expects a SimpleString reply, the shape of AUTH/SELECT/SET
// confirmations ("OK") and of PING ("PONG"). The text itself is not checked.
func MapOK(v resp.Value) (struct{}, error) {
	if se, ok := rediserr.AsServerError(v); ok {
		return struct{}{}, se
	}
	if v.Kind == resp.SimpleString {
		return struct{}{}, nil
	}
	return struct{}{}, &rediserr.ConversionError{Want: "OK", Got: v.Kind}
}

// MapInteger expects an Integer reply.
func MapInteger(v resp.Value) (int64, error) {
	if se, ok := rediserr.AsServerError(v); ok {
		return 0, se
	}
	if v.Kind == resp.Integer {
		return v.Int, nil
	}
	return 0, &rediserr.ConversionError{Want: "integer", Got: v.Kind}
}

// MapBool maps an Integer 0/1 reply to false/true, as used by commands like
// SISMEMBER and EXPIRE.
func MapBool(v resp.Value) (bool, error) {
	n, err := MapInteger(v)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// MapString maps a SimpleString or non-null BulkString reply to a Go
// string. A null bulk string yields ("", false, nil); callers that want a
// hard error on null should check the bool.
func MapString(v resp.Value) (string, bool, error) {
	if se, ok := rediserr.AsServerError(v); ok {
		return "", false, se
	}
	switch v.Kind {
	case resp.SimpleString:
		return v.Str, true, nil
	case resp.BulkString:
		if v.Null {
			return "", false, nil
		}
		return string(v.Bulk), true, nil
	default:
		return "", false, &rediserr.ConversionError{Want: "string", Got: v.Kind}
	}
}

// MapBulk maps a BulkString reply to its raw bytes. A null bulk string
// yields (nil, nil).
func MapBulk(v resp.Value) ([]byte, error) {
	if se, ok := rediserr.AsServerError(v); ok {
		return nil, se
	}
	if v.Kind != resp.BulkString {
		return nil, &rediserr.ConversionError{Want: "bulk string", Got: v.Kind}
	}
	if v.Null {
		return nil, nil
	}
	out := make([]byte, len(v.Bulk))
	copy(out, v.Bulk)
	return out, nil
}

// MapStringSlice maps a (possibly null) Array of BulkStrings to a []string.
// A null array yields (nil, nil); each element that is itself a null bulk
// string becomes "" in the slice.
func MapStringSlice(v resp.Value) ([]string, error) {
	if se, ok := rediserr.AsServerError(v); ok {
		return nil, se
	}
	if v.Kind != resp.Array {
		return nil, &rediserr.ConversionError{Want: "array", Got: v.Kind}
	}
	if v.Null {
		return nil, nil
	}
	out := make([]string, len(v.Items))
	for i, item := range v.Items {
		if item.Kind != resp.BulkString && item.Kind != resp.SimpleString {
			return nil, &rediserr.ConversionError{Want: "bulk string element", Got: item.Kind}
		}
		if item.Kind == resp.BulkString && item.Null {
			continue
		}
		if item.Kind == resp.BulkString {
			out[i] = string(item.Bulk)
		} else {
			out[i] = item.Str
		}
	}
	return out, nil
}

// MapBulkSlice maps a (possibly null) Array of BulkStrings to a [][]byte,
// preserving nil entries for null elements (used by MGET-style commands
// where a missing key must be distinguishable from an empty value).
func MapBulkSlice(v resp.Value) ([][]byte, error) {
	if se, ok := rediserr.AsServerError(v); ok {
		return nil, se
	}
	if v.Kind != resp.Array {
		return nil, &rediserr.ConversionError{Want: "array", Got: v.Kind}
	}
	if v.Null {
		return nil, nil
	}
	out := make([][]byte, len(v.Items))
	for i, item := range v.Items {
		if item.Kind != resp.BulkString {
			return nil, &rediserr.ConversionError{Want: "bulk string element", Got: item.Kind}
		}
		if item.Null {
			continue
		}
		b := make([]byte, len(item.Bulk))
		copy(b, item.Bulk)
		out[i] = b
	}
	return out, nil
}

// MapStringMap consumes a flat Array as alternating key/value pairs, the
// shape HGETALL and CONFIG GET reply with. An odd-length array is a
// Protocol-kind error (§8 testable property 3).
func MapStringMap(v resp.Value) (map[string]string, error) {
	if se, ok := rediserr.AsServerError(v); ok {
		return nil, se
	}
	if v.Kind != resp.Array {
		return nil, &rediserr.ConversionError{Want: "array", Got: v.Kind}
	}
	if v.Null {
		return nil, nil
	}
	if len(v.Items)%2 != 0 {
		return nil, fmt.Errorf("%w: odd-length key/value array", rediserr.ErrProtocol)
	}
	out := make(map[string]string, len(v.Items)/2)
	for i := 0; i+1 < len(v.Items); i += 2 {
		k, _, err := MapString(v.Items[i])
		if err != nil {
			return nil, err
		}
		val, _, err := MapString(v.Items[i+1])
		if err != nil {
			return nil, err
		}
		out[k] = val
	}
	return out, nil
}
