package commands

import "github.com/xenking/gorest-redis/command"

// Publish issues PUBLISH channel message, returning the number of
// subscribers that received it. Actual SUBSCRIBE/UNSUBSCRIBE are not plain
// Commands — they drive Connection/Pool state transitions directly (§4.3),
// so they live as methods, not constructors here.
func Publish(channel string, message []byte) *command.Command[int64] {
	return command.New("PUBLISH", [][]byte{bulk(channel), message}, command.MapInteger)
}
