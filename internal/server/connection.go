// Package server implements the per-connection read-parse-dispatch-write
// loop and the accept loop that spawns one of those per client, upgrading
// the teacher's bare `for { Accept() }` into a supervised, cancellable
// server driven by an errgroup.
package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/calvinlu/redis-clone-go/internal/command"
	"github.com/calvinlu/redis-clone-go/internal/resp"
)

// Conn drives a single client connection end to end: decode a frame,
// dispatch it through the registry, encode the reply, repeat. A command
// whose handler suspends (BLPOP) holds the connection's turn — no other
// frame on this connection is dispatched until it resumes, matching
// spec.md §4.9's simple head-of-line-per-connection contract.
type Conn struct {
	netConn  net.Conn
	decoder  *resp.Decoder
	writer   *bufio.Writer
	registry *command.Registry
	env      *command.Env
	log      *logrus.Entry
}

// NewConn wraps raw with the decoder/writer pair and the registry/env it
// dispatches through.
func NewConn(raw net.Conn, registry *command.Registry, env *command.Env, log *logrus.Entry) *Conn {
	return &Conn{
		netConn:  raw,
		decoder:  resp.NewDecoder(raw),
		writer:   bufio.NewWriter(raw),
		registry: registry,
		env:      env,
		log:      log.WithField("remote_addr", raw.RemoteAddr().String()),
	}
}

// frameResult is one decoded command frame, or the terminal read error that
// ended the connection's read side (client disconnect, protocol error, or
// the socket closing out from under readLoop on shutdown).
type frameResult struct {
	args [][]byte
	err  error
}

// Serve runs the read-dispatch-write loop until the client disconnects, a
// protocol error occurs, or parentCtx is cancelled (server shutdown).
//
// Each connection gets its own cancellable context, derived from
// parentCtx, and its own dedicated reader goroutine. That goroutine is the
// disconnect detector spec.md §4.9/§5 requires: it is the thing still
// reading the socket even while Serve's main loop is parked inside a
// suspended handler (BLPOP's Waiter.Wait), so a client that drops its TCP
// connection mid-BLPOP is noticed immediately — readLoop's blocking read
// fails, it cancels ctx right away, and the handler's Wait call (which was
// given this same ctx) wakes up and unregisters the waiter. Without a
// concurrent reader, nothing would notice the disconnect until a future
// push "woke" the dead waiter and silently discarded the popped value.
func (c *Conn) Serve(parentCtx context.Context) {
	defer c.netConn.Close()

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	frames := make(chan frameResult, 16)
	go c.readLoop(cancel, frames)

	// Cancelling ctx doesn't by itself interrupt an in-flight socket Read;
	// only closing the fd does. This forces readLoop's blocked read to
	// return on server shutdown.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-parentCtx.Done():
			c.netConn.Close()
		case <-stop:
		}
	}()

	for {
		fr, ok := <-frames
		if !ok {
			return
		}
		if fr.err != nil {
			c.handleReadError(fr.err)
			return
		}

		reply := c.registry.Dispatch(ctx, string(fr.args[0]), fr.args[1:], c.env)

		if err := resp.Encode(c.writer, reply); err != nil {
			c.log.WithError(err).Debug("write failed")
			return
		}
		if err := c.writer.Flush(); err != nil {
			c.log.WithError(err).Debug("flush failed")
			return
		}
	}
}

// readLoop decodes frames off the socket and hands them to Serve over
// frames, one at a time, preserving arrival order. On the first read error
// it cancels ctx immediately — before Serve's main loop gets a chance to
// drain the channel — so a handler currently suspended inside Serve's
// in-flight Dispatch call wakes up right away instead of waiting for the
// connection's current turn to finish on its own.
func (c *Conn) readLoop(cancel context.CancelFunc, frames chan<- frameResult) {
	defer close(frames)
	for {
		args, err := c.decoder.ReadCommand()
		if err != nil {
			cancel()
			frames <- frameResult{err: err}
			return
		}
		frames <- frameResult{args: args}
	}
}

func (c *Conn) handleReadError(err error) {
	if errors.Is(err, io.EOF) {
		c.log.Debug("connection closed by peer")
		return
	}
	var protoErr *resp.ProtocolError
	if errors.As(err, &protoErr) {
		c.log.WithError(err).Warn("protocol error, closing connection")
		return
	}
	c.log.WithError(err).Debug("read failed")
}
