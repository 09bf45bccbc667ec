// Command redis-server starts the RESP2 key-value server: binds a TCP
// listener, wires the keyspace, waiter, and command registry, and serves
// connections until SIGINT/SIGTERM, then drains them gracefully.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/calvinlu/redis-clone-go/internal/clock"
	"github.com/calvinlu/redis-clone-go/internal/command"
	"github.com/calvinlu/redis-clone-go/internal/server"
	"github.com/calvinlu/redis-clone-go/internal/store"
	"github.com/calvinlu/redis-clone-go/internal/waiter"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		host            string
		port            int
		shutdownTimeout time.Duration
		logLevel        string
	)

	cmd := &cobra.Command{
		Use:   "redis-server",
		Short: "An in-memory RESP2 key-value server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			addr := net.JoinHostPort(host, strconv.Itoa(port))
			return run(cmd.Context(), addr, shutdownTimeout, log)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVar(&host, "addr", "127.0.0.1", "listen address")
	flags.IntVar(&port, "port", 6379, "listen port")
	flags.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "maximum time to wait for connections to drain on shutdown")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

func newLogger(level string) (*logrus.Entry, error) {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	logger.SetLevel(lvl)
	return logrus.NewEntry(logger), nil
}

// run wires (Clock, Keyspace, Waiter, CommandRegistry, Server) and serves
// until a shutdown signal arrives, then cancels outstanding waiters and
// gives in-flight connections shutdownTimeout to drain.
func run(ctx context.Context, addr string, shutdownTimeout time.Duration, log *logrus.Entry) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := waiter.New()
	w.SetLogger(log)
	ks := store.New(clock.System{}, w)
	registry := command.NewRegistry()
	env := &command.Env{Keyspace: ks, Waiter: w}

	srv := server.New(addr, registry, env, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	select {
	case err := <-errCh:
		return err
	case <-time.After(shutdownTimeout):
		log.Warn("shutdown timeout elapsed before all connections drained")
		return nil
	}
}
