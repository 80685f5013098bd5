package commands

import (
	"strconv"

	"github.com/xenking/gorest-redis/command"
	"github.com/xenking/gorest-redis/rediserr"
	"github.com/xenking/gorest-redis/resp"
)

// KV is one (key, value) pair, as returned by BLPOP/BRPOP on success.
type KV struct {
	Key   string
	Value []byte
}

func mapKV(v resp.Value) (*KV, error) {
	if se, ok := rediserr.AsServerError(v); ok {
		return nil, se
	}
	if v.Kind != resp.Array {
		return nil, &rediserr.ConversionError{Want: "array", Got: v.Kind}
	}
	if v.Null || len(v.Items) == 0 {
		return nil, nil // timed out with nothing popped (§8 testable property 9)
	}
	if len(v.Items) != 2 {
		return nil, &rediserr.ConversionError{Want: "2-element array", Got: v.Kind}
	}
	key, _, err := command.MapString(v.Items[0])
	if err != nil {
		return nil, err
	}
	value, err := command.MapBulk(v.Items[1])
	if err != nil {
		return nil, err
	}
	return &KV{Key: key, Value: value}, nil
}

func timeoutArg(timeoutSeconds int64) []byte {
	return bulk(strconv.FormatInt(timeoutSeconds, 10))
}

// BLPop issues BLPOP key [key ...] timeout. A nil result means the timeout
// elapsed with nothing popped; timeoutSeconds 0 blocks indefinitely (§5
// "Cancellation and timeouts").
func BLPop(timeoutSeconds int64, keys ...string) *command.Command[*KV] {
	args := appendBulks(nil, keys...)
	args = append(args, timeoutArg(timeoutSeconds))
	return command.New("BLPOP", args, mapKV)
}

// BRPop mirrors BLPop, popping from the tail.
func BRPop(timeoutSeconds int64, keys ...string) *command.Command[*KV] {
	args := appendBulks(nil, keys...)
	args = append(args, timeoutArg(timeoutSeconds))
	return command.New("BRPOP", args, mapKV)
}

// BRPopLPush issues BRPOPLPUSH source destination timeout. A nil result
// means the timeout elapsed.
func BRPopLPush(source, destination string, timeoutSeconds int64) *command.Command[[]byte] {
	args := [][]byte{bulk(source), bulk(destination), timeoutArg(timeoutSeconds)}
	return command.New("BRPOPLPUSH", args, command.MapBulk)
}

// ZPopResult is the (key, member, score) triple BZPOPMIN/BZPOPMAX reply
// with on success.
type ZPopResult struct {
	Key    string
	Member string
	Score  float64
}

func mapZPopResult(v resp.Value) (*ZPopResult, error) {
	if se, ok := rediserr.AsServerError(v); ok {
		return nil, se
	}
	if v.Kind != resp.Array {
		return nil, &rediserr.ConversionError{Want: "array", Got: v.Kind}
	}
	if v.Null || len(v.Items) == 0 {
		return nil, nil
	}
	if len(v.Items) != 3 {
		return nil, &rediserr.ConversionError{Want: "3-element array", Got: v.Kind}
	}
	key, _, err := command.MapString(v.Items[0])
	if err != nil {
		return nil, err
	}
	member, _, err := command.MapString(v.Items[1])
	if err != nil {
		return nil, err
	}
	scoreStr, _, err := command.MapString(v.Items[2])
	if err != nil {
		return nil, err
	}
	score, perr := strconv.ParseFloat(scoreStr, 64)
	if perr != nil {
		return nil, &rediserr.ConversionError{Want: "float score", Got: v.Items[2].Kind}
	}
	return &ZPopResult{Key: key, Member: member, Score: score}, nil
}

// BZPopMin issues BZPOPMIN key [key ...] timeout.
func BZPopMin(timeoutSeconds int64, keys ...string) *command.Command[*ZPopResult] {
	args := appendBulks(nil, keys...)
	args = append(args, timeoutArg(timeoutSeconds))
	return command.New("BZPOPMIN", args, mapZPopResult)
}

// BZPopMax issues BZPOPMAX key [key ...] timeout.
func BZPopMax(timeoutSeconds int64, keys ...string) *command.Command[*ZPopResult] {
	args := appendBulks(nil, keys...)
	args = append(args, timeoutArg(timeoutSeconds))
	return command.New("BZPOPMAX", args, mapZPopResult)
}
