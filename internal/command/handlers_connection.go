package command

import (
	"context"

	"github.com/calvinlu/redis-clone-go/internal/resp"
)

// pingCommand replies +PONG unconditionally, ignoring an optional argument.
// This preserves the original_source Python implementation's behaviour
// (ping_command.py / ping.py both reply PONG regardless of an extra arg)
// rather than real Redis's "echo the argument" PING — an explicit Open
// Question resolution, see SPEC_FULL.md.
func pingCommand() *Command {
	return &Command{
		Name:       "PING",
		CheckArity: oneOf(0, 1),
		Handle: func(_ context.Context, _ [][]byte, _ *Env) resp.Value {
			return resp.SimpleString("PONG")
		},
	}
}

func echoCommand() *Command {
	return &Command{
		Name:       "ECHO",
		CheckArity: exactly(1),
		Handle: func(_ context.Context, args [][]byte, _ *Env) resp.Value {
			return resp.BulkString(args[0])
		},
	}
}
