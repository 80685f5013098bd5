package commands

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strconv"

	"github.com/xenking/gorest-redis/command"
	"github.com/xenking/gorest-redis/internal/conn"
	"github.com/xenking/gorest-redis/rediserr"
	"github.com/xenking/gorest-redis/resp"
)

func scriptArgs(keys, args []string) [][]byte {
	out := make([][]byte, 0, 1+len(keys)+len(args))
	out = append(out, bulk(strconv.Itoa(len(keys))))
	out = appendBulks(out, keys...)
	out = appendBulks(out, args...)
	return out
}

// Eval issues EVAL script numkeys key... arg.... The reply shape is
// script-defined, so it is handed back raw via command.Identity.
func Eval(script string, keys, args []string) *command.Command[resp.Value] {
	cmdArgs := append([][]byte{bulk(script)}, scriptArgs(keys, args)...)
	return command.New("EVAL", cmdArgs, command.Identity)
}

// EvalSha issues EVALSHA sha1 numkeys key... arg....
func EvalSha(sha1Hex string, keys, args []string) *command.Command[resp.Value] {
	cmdArgs := append([][]byte{bulk(sha1Hex)}, scriptArgs(keys, args)...)
	return command.New("EVALSHA", cmdArgs, command.Identity)
}

// ScriptLoad issues SCRIPT LOAD script, returning the sha1 digest Redis will
// accept in a later EVALSHA.
func ScriptLoad(script string) *command.Command[string] {
	mapper := func(v resp.Value) (string, error) {
		s, _, err := command.MapString(v)
		return s, err
	}
	return command.New("SCRIPT", [][]byte{bulk("LOAD"), bulk(script)}, mapper)
}

func sha1Hex(script string) string {
	sum := sha1.Sum([]byte(script))
	return hex.EncodeToString(sum[:])
}

// EvalSHA1Auto tries EVALSHA first (computing the script's sha1 itself) and
// transparently falls back to EVAL, loading the script server-side, on a
// NOSCRIPT server error (§9 Open Question, resolved in favor of
// implementing the fallback — see DESIGN.md).
func EvalSHA1Auto(ctx context.Context, c *conn.Connection, script string, keys, args []string) (resp.Value, error) {
	sha := sha1Hex(script)
	v, err := conn.Send(ctx, c, EvalSha(sha, keys, args))
	if err == nil {
		return v, nil
	}
	if se, ok := err.(rediserr.ServerError); ok && se.Prefix() == "NOSCRIPT" {
		return conn.Send(ctx, c, Eval(script, keys, args))
	}
	return resp.Value{}, err
}
