package command

import (
	"context"
	"strconv"
	"time"

	"github.com/calvinlu/redis-clone-go/internal/resp"
)

func rpushCommand() *Command {
	return &Command{
		Name:       "RPUSH",
		CheckArity: atLeast(2),
		Handle: func(_ context.Context, args [][]byte, env *Env) resp.Value {
			n, err := env.Keyspace.RPush(string(args[0]), args[1:])
			if err != nil {
				return storeErrorReply(err)
			}
			return resp.Integer(int64(n))
		},
	}
}

func lpushCommand() *Command {
	return &Command{
		Name:       "LPUSH",
		CheckArity: atLeast(2),
		Handle: func(_ context.Context, args [][]byte, env *Env) resp.Value {
			n, err := env.Keyspace.LPush(string(args[0]), args[1:])
			if err != nil {
				return storeErrorReply(err)
			}
			return resp.Integer(int64(n))
		},
	}
}

func lpopCommand() *Command {
	return &Command{
		Name:       "LPOP",
		CheckArity: oneOf(1, 2),
		Handle: func(_ context.Context, args [][]byte, env *Env) resp.Value {
			key := string(args[0])
			if len(args) == 1 {
				value, _, err := env.Keyspace.LPop(key, nil)
				if err != nil {
					return storeErrorReply(err)
				}
				if value == nil {
					return resp.NilBulk()
				}
				return resp.BulkString(value)
			}
			count, err := strconv.Atoi(string(args[1]))
			if err != nil {
				return resp.Error(errNotIntegerRange)
			}
			_, values, err := env.Keyspace.LPop(key, &count)
			if err != nil {
				return storeErrorReply(err)
			}
			elems := make([]resp.Value, len(values))
			for i, v := range values {
				elems[i] = resp.BulkString(v)
			}
			return resp.Array(elems)
		},
	}
}

func lrangeCommand() *Command {
	return &Command{
		Name:       "LRANGE",
		CheckArity: exactly(3),
		Handle: func(_ context.Context, args [][]byte, env *Env) resp.Value {
			start, err := strconv.Atoi(string(args[1]))
			if err != nil {
				return resp.Error(errNotIntegerRange)
			}
			stop, err := strconv.Atoi(string(args[2]))
			if err != nil {
				return resp.Error(errNotIntegerRange)
			}
			values, err := env.Keyspace.LRange(string(args[0]), start, stop)
			if err != nil {
				return storeErrorReply(err)
			}
			elems := make([]resp.Value, len(values))
			for i, v := range values {
				elems[i] = resp.BulkString(v)
			}
			return resp.Array(elems)
		},
	}
}

func llenCommand() *Command {
	return &Command{
		Name:       "LLEN",
		CheckArity: exactly(1),
		Handle: func(_ context.Context, args [][]byte, env *Env) resp.Value {
			n, err := env.Keyspace.LLen(string(args[0]))
			if err != nil {
				return storeErrorReply(err)
			}
			return resp.Integer(int64(n))
		},
	}
}

// blpopCommand implements BLPOP key [key ...] timeout. The timeout is
// accepted as fractional seconds and converted to milliseconds; 0 means
// wait indefinitely.
func blpopCommand() *Command {
	return &Command{
		Name:       "BLPOP",
		CheckArity: atLeast(2),
		Handle: func(ctx context.Context, args [][]byte, env *Env) resp.Value {
			keys := make([]string, len(args)-1)
			for i, k := range args[:len(args)-1] {
				keys[i] = string(k)
			}
			timeoutSecs, err := strconv.ParseFloat(string(args[len(args)-1]), 64)
			if err != nil {
				return resp.Error(errTimeoutNotFloat)
			}
			if timeoutSecs < 0 {
				return resp.Error(errTimeoutNegative)
			}
			timeout := time.Duration(timeoutSecs * float64(time.Second))

			result, err := env.Keyspace.BLPopTryOrRegister(keys)
			if err != nil {
				return storeErrorReply(err)
			}
			if result.Popped {
				return resp.Array([]resp.Value{
					resp.BulkStringFromString(result.Key),
					resp.BulkString(result.Value),
				})
			}

			delivery, ok := result.Waiter.Wait(ctx, timeout)
			if !ok {
				return resp.NilArray()
			}
			return resp.Array([]resp.Value{
				resp.BulkStringFromString(delivery.Key),
				resp.BulkString(delivery.Value),
			})
		},
	}
}
