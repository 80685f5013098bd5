package commands

import "github.com/xenking/gorest-redis/command"

// HSet issues HSET key field value.
func HSet(key, field string, value []byte) *command.Command[int64] {
	return command.New("HSET", [][]byte{bulk(key), bulk(field), value}, command.MapInteger)
}

// HGet issues HGET key field. A null bulk reply (missing field) maps to nil.
func HGet(key, field string) *command.Command[[]byte] {
	return command.New("HGET", [][]byte{bulk(key), bulk(field)}, command.MapBulk)
}

// HGetAll issues HGETALL key, mapping the flat key/value array into a map
// (spec §8 testable property 3).
func HGetAll(key string) *command.Command[map[string]string] {
	return command.New("HGETALL", [][]byte{bulk(key)}, command.MapStringMap)
}

// HDel issues HDEL key field [field ...].
func HDel(key string, fields ...string) *command.Command[int64] {
	args := appendBulks([][]byte{bulk(key)}, fields...)
	return command.New("HDEL", args, command.MapInteger)
}
