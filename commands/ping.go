package commands

import (
	"strconv"

	"github.com/xenking/gorest-redis/command"
)

// Ping issues PING, expecting a SimpleString "PONG" reply.
func Ping() *command.Command[struct{}] {
	return command.New("PING", nil, command.MapOK)
}

// Auth issues AUTH password, the same command Connection.Handshake sends
// internally; exposed here for callers that want to re-authenticate
// explicitly.
func Auth(password string) *command.Command[struct{}] {
	return command.New("AUTH", [][]byte{bulk(password)}, command.MapOK)
}

// Select issues SELECT index.
func Select(index int) *command.Command[struct{}] {
	return command.New("SELECT", [][]byte{bulk(strconv.Itoa(index))}, command.MapOK)
}
