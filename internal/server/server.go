package server

import (
	"context"
	"errors"
	"net"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/calvinlu/redis-clone-go/internal/command"
)

// Server binds a TCP listener, spawns one goroutine per accepted
// connection, and owns graceful shutdown: stop accepting, cancel every
// outstanding waiter, drain connection goroutines.
type Server struct {
	addr     string
	registry *command.Registry
	env      *command.Env
	log      *logrus.Entry
}

// New returns a Server listening on addr (host:port), dispatching every
// frame through registry against env.
func New(addr string, registry *command.Registry, env *command.Env, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{addr: addr, registry: registry, env: env, log: log}
}

// Run binds the listener and serves connections until ctx is cancelled. It
// returns once the listener is closed and every spawned connection
// goroutine has returned. A bind failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	s.log.WithField("addr", s.addr).Info("listening")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		return s.acceptLoop(ctx, ln)
	})

	err = g.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var conns errgroup.Group
	defer conns.Wait()

	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.WithError(err).Warn("accept failed")
			continue
		}

		s.log.WithField("remote_addr", raw.RemoteAddr().String()).Debug("connection accepted")
		conn := NewConn(raw, s.registry, s.env, s.log)
		conns.Go(func() error {
			conn.Serve(ctx)
			return nil
		})
	}
}
