// Package command implements the name-to-handler dispatch table: arity
// checking, error-kind-to-RESP-error translation, and one handler per
// command in the supported surface.
package command

import (
	"context"
	"strings"

	"github.com/calvinlu/redis-clone-go/internal/resp"
	"github.com/calvinlu/redis-clone-go/internal/store"
	"github.com/calvinlu/redis-clone-go/internal/waiter"
)

// Env is the shared state every handler operates against.
type Env struct {
	Keyspace *store.Keyspace
	Waiter   *waiter.Waiter
}

// Handler executes one command. args excludes the command name itself.
// ctx is cancelled on client disconnect or server shutdown and must be
// honoured by any handler that can suspend (BLPOP).
type Handler func(ctx context.Context, args [][]byte, env *Env) resp.Value

// Command pairs a handler with its arity check.
type Command struct {
	Name       string
	CheckArity func(nArgs int) bool
	Handle     Handler
}

// Registry maps uppercased command names to their Command.
type Registry struct {
	commands map[string]*Command
}

// NewRegistry returns a Registry with every command in the supported
// surface already registered.
func NewRegistry() *Registry {
	r := &Registry{commands: make(map[string]*Command)}
	r.register(pingCommand())
	r.register(echoCommand())
	r.register(setCommand())
	r.register(getCommand())
	r.register(rpushCommand())
	r.register(lpushCommand())
	r.register(lpopCommand())
	r.register(lrangeCommand())
	r.register(llenCommand())
	r.register(blpopCommand())
	r.register(xaddCommand())
	r.register(typeCommand())
	r.register(flushdbCommand())
	return r
}

func (r *Registry) register(cmd *Command) {
	r.commands[cmd.Name] = cmd
}

// Dispatch resolves name case-insensitively, validates arity, and invokes
// the handler. Unknown names and arity mismatches are reported as RESP
// errors without touching env.
func (r *Registry) Dispatch(ctx context.Context, name string, args [][]byte, env *Env) resp.Value {
	upper := strings.ToUpper(name)
	cmd, ok := r.commands[upper]
	if !ok {
		return resp.Error("ERR unknown command '" + name + "'")
	}
	if !cmd.CheckArity(len(args)) {
		return resp.Error("ERR wrong number of arguments for '" + strings.ToLower(upper) + "' command")
	}
	return cmd.Handle(ctx, args, env)
}

func exactly(n int) func(int) bool {
	return func(got int) bool { return got == n }
}

func atLeast(n int) func(int) bool {
	return func(got int) bool { return got >= n }
}

func oneOf(ns ...int) func(int) bool {
	return func(got int) bool {
		for _, n := range ns {
			if got == n {
				return true
			}
		}
		return false
	}
}
