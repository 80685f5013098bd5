package commands

import (
	"fmt"
	"strconv"

	"github.com/xenking/gorest-redis/command"
	"github.com/xenking/gorest-redis/rediserr"
	"github.com/xenking/gorest-redis/resp"
)

// ZInsertMode selects ZADD's NX/XX insertion behavior.
type ZInsertMode int

const (
	ZInsertAny ZInsertMode = iota
	ZInsertOnlyNew
	ZInsertOnlyExisting
)

// ZReturnMode selects whether ZADD reports added (default) or changed (CH)
// element counts.
type ZReturnMode int

const (
	ZReturnAdded ZReturnMode = iota
	ZReturnChanged
)

// ZMember is one (member, score) pair submitted to ZAdd.
type ZMember struct {
	Member string
	Score  float64
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ZAdd issues ZADD key [NX|XX] [CH] score member [score member ...] (§6
// "ZADD flags"; §8 testable property 4 fixes the exact argument order:
// key, NX, CH, score, member).
func ZAdd(key string, members []ZMember, insert ZInsertMode, ret ZReturnMode) *command.Command[int64] {
	args := [][]byte{bulk(key)}
	switch insert {
	case ZInsertOnlyNew:
		args = append(args, bulk("NX"))
	case ZInsertOnlyExisting:
		args = append(args, bulk("XX"))
	}
	if ret == ZReturnChanged {
		args = append(args, bulk("CH"))
	}
	for _, m := range members {
		args = append(args, bulk(formatScore(m.Score)), bulk(m.Member))
	}
	return command.New("ZADD", args, command.MapInteger)
}

// ZRangeByScore issues ZRANGEBYSCORE key min max. min/max follow §6's score
// syntax: plain decimal for inclusive, "(value" for exclusive.
func ZRangeByScore(key, min, max string) *command.Command[[]string] {
	return command.New("ZRANGEBYSCORE", [][]byte{bulk(key), bulk(min), bulk(max)}, command.MapStringSlice)
}

// ZScoredMember is one (member, score) pair returned by
// ZRangeByScoreWithScores.
type ZScoredMember struct {
	Member string
	Score  float64
}

func mapScoredMembers(v resp.Value) ([]ZScoredMember, error) {
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
		return nil, fmt.Errorf("%w: odd-length member/score array", rediserr.ErrProtocol)
	}
	out := make([]ZScoredMember, 0, len(v.Items)/2)
	for i := 0; i+1 < len(v.Items); i += 2 {
		member, _, err := command.MapString(v.Items[i])
		if err != nil {
			return nil, err
		}
		scoreStr, _, err := command.MapString(v.Items[i+1])
		if err != nil {
			return nil, err
		}
		score, perr := strconv.ParseFloat(scoreStr, 64)
		if perr != nil {
			return nil, &rediserr.ConversionError{Want: "float score", Got: v.Items[i+1].Kind}
		}
		out = append(out, ZScoredMember{Member: member, Score: score})
	}
	return out, nil
}

// ZRangeByScoreWithScores issues ZRANGEBYSCORE key min max WITHSCORES.
func ZRangeByScoreWithScores(key, min, max string) *command.Command[[]ZScoredMember] {
	args := [][]byte{bulk(key), bulk(min), bulk(max), bulk("WITHSCORES")}
	return command.New("ZRANGEBYSCORE", args, mapScoredMembers)
}

// ZStoreAggregate selects Z*STORE's AGGREGATE mode.
type ZStoreAggregate string

const (
	ZAggregateSum ZStoreAggregate = "SUM"
	ZAggregateMin ZStoreAggregate = "MIN"
	ZAggregateMax ZStoreAggregate = "MAX"
)

func zStoreArgs(dest string, keys []string, weights []float64, aggregate ZStoreAggregate) [][]byte {
	args := [][]byte{bulk(dest), bulk(strconv.Itoa(len(keys)))}
	args = appendBulks(args, keys...)
	if len(weights) > 0 {
		args = append(args, bulk("WEIGHTS"))
		for _, w := range weights {
			args = append(args, bulk(formatScore(w)))
		}
	}
	if aggregate != "" {
		args = append(args, bulk("AGGREGATE"), bulk(string(aggregate)))
	}
	return args
}

// ZInterStore issues ZINTERSTORE destination numkeys keys... [WEIGHTS ...]
// [AGGREGATE ...] (§6 "Z*STORE").
func ZInterStore(dest string, keys []string, weights []float64, aggregate ZStoreAggregate) *command.Command[int64] {
	return command.New("ZINTERSTORE", zStoreArgs(dest, keys, weights, aggregate), command.MapInteger)
}

// ZUnionStore issues ZUNIONSTORE with the same argument shape as ZInterStore.
func ZUnionStore(dest string, keys []string, weights []float64, aggregate ZStoreAggregate) *command.Command[int64] {
	return command.New("ZUNIONSTORE", zStoreArgs(dest, keys, weights, aggregate), command.MapInteger)
}
