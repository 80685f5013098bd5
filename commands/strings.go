package commands

import "github.com/xenking/gorest-redis/command"

// Get issues GET key.
func Get(key string) *command.Command[[]byte] {
	return command.New("GET", [][]byte{bulk(key)}, command.MapBulk)
}

// Set issues SET key value.
func Set(key string, value []byte) *command.Command[struct{}] {
	return command.New("SET", [][]byte{bulk(key), value}, command.MapOK)
}

// Del issues DEL key [key ...].
func Del(keys ...string) *command.Command[int64] {
	return command.New("DEL", bulks(keys...), command.MapInteger)
}

// MGet issues MGET key [key ...], preserving nil entries for missing keys.
func MGet(keys ...string) *command.Command[[][]byte] {
	return command.New("MGET", bulks(keys...), command.MapBulkSlice)
}
