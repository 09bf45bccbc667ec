package command

import (
	"context"

	"github.com/calvinlu/redis-clone-go/internal/resp"
	"github.com/calvinlu/redis-clone-go/internal/store"
)

// xaddCommand implements XADD key id field value [field value ...]. Arity
// is at least 5 elements (key, id, field, value) with an even number of
// trailing field/value arguments; an odd trailing count is its own error
// distinct from plain arity.
func xaddCommand() *Command {
	return &Command{
		Name:       "XADD",
		CheckArity: atLeast(4),
		Handle: func(_ context.Context, args [][]byte, env *Env) resp.Value {
			key := string(args[0])
			idSpec := string(args[1])
			fieldArgs := args[2:]
			if len(fieldArgs) == 0 || len(fieldArgs)%2 != 0 {
				return resp.Error("ERR wrong number of arguments for 'xadd' command")
			}
			fields := make([]store.Field, len(fieldArgs)/2)
			for i := range fields {
				fields[i] = store.Field{
					Name:  string(fieldArgs[2*i]),
					Value: string(fieldArgs[2*i+1]),
				}
			}
			id, err := env.Keyspace.XAdd(key, idSpec, fields)
			if err != nil {
				return storeErrorReply(err)
			}
			return resp.BulkStringFromString(id)
		},
	}
}
