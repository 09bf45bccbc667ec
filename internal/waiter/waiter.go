// Package waiter implements the blocking rendezvous layer BLPOP needs: a
// per-key FIFO of suspended callers, woken in registration order by a
// concurrent list push, with timeout and cancellation support.
package waiter

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Delivery is handed to a waiter when it is woken by a push.
type Delivery struct {
	Key   string
	Value []byte
}

type entry struct {
	keys []string
	ch   chan Delivery
	done bool
}

// Waiter owns the FIFO queues for every list key with a suspended BLPOP
// caller. All mutation of the queues happens under the Waiter's own mutex.
// A push's "append then notify" sequence is atomic with respect to other
// pops and registrations because the caller (the keyspace) holds its own
// lock across the append, Register, and NotifyPush calls.
type Waiter struct {
	mu     sync.Mutex
	perKey map[string][]*entry
	log    *logrus.Entry
}

// New returns an empty Waiter, logging through the standard logrus logger
// until SetLogger overrides it.
func New() *Waiter {
	return &Waiter{
		perKey: make(map[string][]*entry),
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
}

// SetLogger overrides the Waiter's logger, so cancellation logging shares
// the same *logrus.Entry (and its fields) as the rest of the server.
func (w *Waiter) SetLogger(log *logrus.Entry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = log
}

// Registration is the handle returned by Register; the caller awaits it
// with Wait.
type Registration struct {
	w *Waiter
	e *entry
}

// Register atomically enqueues the caller at the tail of every key's FIFO.
// The caller must eventually call Wait (and only once) on the returned
// Registration to suspend and, on every exit path, be unregistered from
// every key it watched.
func (w *Waiter) Register(keys []string) *Registration {
	e := &entry{keys: append([]string(nil), keys...), ch: make(chan Delivery, 1)}
	w.mu.Lock()
	for _, k := range keys {
		w.perKey[k] = append(w.perKey[k], e)
	}
	w.mu.Unlock()
	return &Registration{w: w, e: e}
}

// Wait suspends until the registration is signalled by a push, the timeout
// elapses (timeout <= 0 means wait indefinitely), or ctx is cancelled. It
// returns (delivery, true) on a wake, or (zero, false) on timeout/cancel.
func (w *Registration) Wait(ctx context.Context, timeout time.Duration) (Delivery, bool) {
	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case d := <-w.e.ch:
		return d, true
	case <-timeoutC:
		if w.w.cancel(w.e) {
			return Delivery{}, false
		}
		// A push claimed this entry in the race between the timer firing
		// and NotifyPush running; delivery is already in flight.
		return <-w.e.ch, true
	case <-ctx.Done():
		if w.w.cancel(w.e) {
			return Delivery{}, false
		}
		return <-w.e.ch, true
	}
}

// NotifyPush is invoked after a list mutation appended at least one value.
// It walks key's FIFO, skipping stale entries, until it finds a live
// waiter; claims it (removing it from every key it was registered on), and
// delivers the value pop returns. pop is called at most once, synchronously,
// while the caller still holds whatever lock makes the value visible and
// stable — typically the keyspace lock — so that the push-then-notify
// sequence never interleaves with another pop of the same key. It returns
// true if a waiter was woken.
func (w *Waiter) NotifyPush(key string, pop func() ([]byte, bool)) bool {
	e := w.claimNext(key)
	if e == nil {
		return false
	}
	value, ok := pop()
	if !ok {
		// Invariant violation by the caller: NotifyPush must run in the same
		// critical section as the append that preceded it. Deliver a zero
		// value rather than leaving the waiter permanently suspended.
		value = nil
	}
	e.ch <- Delivery{Key: key, Value: value}
	return true
}

// claimNext pops the first live entry off key's FIFO and removes it from
// every other key it was registered on. Stale entries (already claimed or
// cancelled) are discarded as they're found.
func (w *Waiter) claimNext(key string) *entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		q := w.perKey[key]
		if len(q) == 0 {
			delete(w.perKey, key)
			return nil
		}
		e := q[0]
		if len(q) == 1 {
			delete(w.perKey, key)
		} else {
			w.perKey[key] = q[1:]
		}
		if e.done {
			continue
		}
		e.done = true
		w.removeFromKeysLocked(e)
		return e
	}
}

// cancel marks e done and removes it from every key it watches, unless a
// concurrent NotifyPush already claimed it. Returns true if this call won
// the race and performed the cancellation.
func (w *Waiter) cancel(e *entry) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e.done {
		return false
	}
	e.done = true
	w.removeFromKeysLocked(e)
	w.log.WithField("keys", e.keys).Debug("waiter cancelled (timeout, disconnect, or shutdown)")
	return true
}

func (w *Waiter) removeFromKeysLocked(e *entry) {
	for _, k := range e.keys {
		q := w.perKey[k]
		for i, other := range q {
			if other == e {
				q = append(q[:i], q[i+1:]...)
				break
			}
		}
		if len(q) == 0 {
			delete(w.perKey, k)
		} else {
			w.perKey[k] = q
		}
	}
}

// Len returns the number of live waiters registered on key, for tests and
// diagnostics.
func (w *Waiter) Len(key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, e := range w.perKey[key] {
		if !e.done {
			n++
		}
	}
	return n
}
