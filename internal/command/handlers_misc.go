package command

import (
	"context"

	"github.com/calvinlu/redis-clone-go/internal/resp"
)

func typeCommand() *Command {
	return &Command{
		Name:       "TYPE",
		CheckArity: exactly(1),
		Handle: func(_ context.Context, args [][]byte, env *Env) resp.Value {
			return resp.SimpleString(env.Keyspace.Type(string(args[0])))
		},
	}
}

func flushdbCommand() *Command {
	return &Command{
		Name:       "FLUSHDB",
		CheckArity: exactly(0),
		Handle: func(_ context.Context, _ [][]byte, env *Env) resp.Value {
			env.Keyspace.FlushDB()
			return resp.SimpleString("OK")
		},
	}
}
