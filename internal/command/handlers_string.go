package command

import (
	"context"
	"strconv"
	"strings"

	"github.com/calvinlu/redis-clone-go/internal/resp"
)

// setCommand implements SET key value [PX ms]. EX is not part of this
// spec's surface (px is the only option).
func setCommand() *Command {
	return &Command{
		Name:       "SET",
		CheckArity: oneOf(2, 4),
		Handle: func(_ context.Context, args [][]byte, env *Env) resp.Value {
			key, value := args[0], args[1]
			var ttlMillis *int64
			if len(args) == 4 {
				option := strings.ToUpper(string(args[2]))
				if option != "PX" {
					return resp.Error(errSyntax)
				}
				ms, err := strconv.ParseInt(string(args[3]), 10, 64)
				if err != nil || ms <= 0 {
					return resp.Error(errInvalidExpire)
				}
				ttlMillis = &ms
			}
			env.Keyspace.Set(string(key), value, ttlMillis)
			return resp.SimpleString("OK")
		},
	}
}

func getCommand() *Command {
	return &Command{
		Name:       "GET",
		CheckArity: exactly(1),
		Handle: func(_ context.Context, args [][]byte, env *Env) resp.Value {
			value, ok, err := env.Keyspace.Get(string(args[0]))
			if err != nil {
				return storeErrorReply(err)
			}
			if !ok {
				return resp.NilBulk()
			}
			return resp.BulkString(value)
		},
	}
}
