// Package store implements the typed, in-memory keyspace: string, list, and
// stream values behind a single "one kind per key" namespace, plus the
// blocking-aware push path that notifies the waiter layer synchronously
// inside the same critical section that makes a pushed value visible.
package store

import (
	"sync"

	"github.com/calvinlu/redis-clone-go/internal/clock"
	"github.com/calvinlu/redis-clone-go/internal/waiter"
)

// Keyspace routes (key, desired kind) to the correct backing store and
// enforces that every key holds at most one Kind at a time. It owns the
// single mutex serializing all store and waiter-notification access.
type Keyspace struct {
	mu sync.Mutex

	kinds   map[string]Kind
	strings *stringStore
	lists   *listStore
	streams *streamStore

	clock  clock.Clock
	waiter *waiter.Waiter
}

// New returns an empty Keyspace driven by clk and backed by w for blocking
// list operations.
func New(clk clock.Clock, w *waiter.Waiter) *Keyspace {
	return &Keyspace{
		kinds:   make(map[string]Kind),
		strings: newStringStore(),
		lists:   newListStore(),
		streams: newStreamStore(),
		clock:   clk,
		waiter:  w,
	}
}

func (k *Keyspace) checkKind(key string, want Kind) error {
	if existing, ok := k.kinds[key]; ok && existing != want {
		return ErrWrongType
	}
	return nil
}

// Set stores value under key as a string, replacing whatever was there
// before regardless of its prior kind (matching real Redis SET semantics).
// ttlMillis, when non-nil, is the TTL in milliseconds from now.
func (k *Keyspace) Set(key string, value []byte, ttlMillis *int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.dropAnyKindLocked(key)
	k.strings.set(key, value, ttlMillis, k.clock.NowMillis())
	k.kinds[key] = KindString
}

// Get returns the string stored at key, or (nil, false) if absent, expired,
// or held under a different kind (error).
func (k *Keyspace) Get(key string) ([]byte, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkKind(key, KindString); err != nil {
		return nil, false, err
	}
	value, ok := k.strings.get(key, k.clock.NowMillis())
	if !ok {
		k.dropKindIfAbsentLocked(key, KindString)
		return nil, false, nil
	}
	return value, true, nil
}

// dropAnyKindLocked clears key from whichever store currently holds it,
// used by SET's overwrite-any-type semantics.
func (k *Keyspace) dropAnyKindLocked(key string) {
	switch k.kinds[key] {
	case KindString:
		k.strings.delete(key)
	case KindList:
		k.lists.delete(key)
	case KindStream:
		// streams have no delete command in this surface, but SET must
		// still be able to overwrite one.
		delete(k.streams.streams, key)
	}
	delete(k.kinds, key)
}

// dropKindIfAbsentLocked removes the kind binding for key if the backing
// store no longer actually holds it under kind (e.g. after lazy string
// expiry or a list pop that emptied it).
func (k *Keyspace) dropKindIfAbsentLocked(key string, kind Kind) {
	if k.kinds[key] != kind {
		return
	}
	switch kind {
	case KindString:
		if _, ok := k.strings.entries[key]; ok {
			return
		}
	case KindList:
		if k.lists.length(key) > 0 {
			return
		}
	case KindStream:
		if k.streams.exists(key) {
			return
		}
	}
	delete(k.kinds, key)
}

// RPush appends values to key's list in argument order, notifying one
// blocked BLPOP waiter per appended value (synchronously, inside the same
// critical section that made the value visible). It returns the new
// length, or an error if key holds a non-list kind.
func (k *Keyspace) RPush(key string, values [][]byte) (int, error) {
	return k.push(key, values, k.lists.pushBack)
}

// LPush prepends values to key's list individually, in argument order, so
// the last value pushed becomes the new head.
func (k *Keyspace) LPush(key string, values [][]byte) (int, error) {
	return k.push(key, values, k.lists.pushFront)
}

func (k *Keyspace) push(key string, values [][]byte, do func(string, []byte) int) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkKind(key, KindList); err != nil {
		return 0, err
	}

	// Phase 1: apply every push so the returned length reflects the whole
	// command, matching Redis's "push fully, then unblock waiters" order.
	length := k.lists.length(key)
	for _, v := range values {
		length = do(key, v)
		k.kinds[key] = KindList
	}

	// Phase 2: wake up to len(values) waiters, one per appended value, each
	// handed a value popped from the now-fully-populated list.
	popFromHead := func() ([]byte, bool) {
		val, ok := k.lists.popHead(key)
		if ok {
			k.dropKindIfAbsentLocked(key, KindList)
		}
		return val, ok
	}
	for range values {
		if !k.waiter.NotifyPush(key, popFromHead) {
			break
		}
	}
	return length, nil
}

// LPop removes and returns the head of key's list. withCount selects
// between the single-value and counted forms: without a count, a missing
// list yields (nil, nil, nil); with a count (even zero or more than the
// list holds), a missing list yields an empty, non-nil slice.
func (k *Keyspace) LPop(key string, count *int) ([]byte, [][]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkKind(key, KindList); err != nil {
		return nil, nil, err
	}
	if count == nil {
		val, ok := k.lists.popHead(key)
		if !ok {
			k.dropKindIfAbsentLocked(key, KindList)
			return nil, nil, nil
		}
		k.dropKindIfAbsentLocked(key, KindList)
		return val, nil, nil
	}
	values := k.lists.popHeadN(key, *count)
	k.dropKindIfAbsentLocked(key, KindList)
	return nil, values, nil
}

// LRange returns the normalized [start, stop] slice of key's list.
func (k *Keyspace) LRange(key string, start, stop int) ([][]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkKind(key, KindList); err != nil {
		return nil, err
	}
	return k.lists.rangeSlice(key, start, stop), nil
}

// LLen returns key's list length, 0 if absent.
func (k *Keyspace) LLen(key string) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkKind(key, KindList); err != nil {
		return 0, err
	}
	return k.lists.length(key), nil
}

// BLPopResult is what BLPopTryOrRegister hands back: either an immediate
// (key, value) pair, or a Registration to await.
type BLPopResult struct {
	Key     string
	Value   []byte
	Popped  bool
	Waiter  *waiter.Registration
}

// BLPopTryOrRegister validates that every key is either absent or a list
// (WRONGTYPE otherwise), then attempts an immediate pop across keys in
// order. If none has data, it atomically registers a waiter on all of them
// — atomically with respect to concurrent pushes, since both happen under
// the keyspace mutex.
func (k *Keyspace) BLPopTryOrRegister(keys []string) (BLPopResult, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, key := range keys {
		if err := k.checkKind(key, KindList); err != nil {
			return BLPopResult{}, err
		}
	}
	for _, key := range keys {
		if val, ok := k.lists.popHead(key); ok {
			k.dropKindIfAbsentLocked(key, KindList)
			return BLPopResult{Key: key, Value: val, Popped: true}, nil
		}
	}
	reg := k.waiter.Register(keys)
	return BLPopResult{Waiter: reg}, nil
}

// XAdd appends an entry to key's stream, returning its canonical ID text.
func (k *Keyspace) XAdd(key, idSpec string, fields []Field) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkKind(key, KindStream); err != nil {
		return "", err
	}
	id, err := k.streams.xadd(key, idSpec, fields, uint64(k.clock.NowMillis()))
	if err != nil {
		return "", err
	}
	k.kinds[key] = KindStream
	return id, nil
}

// Type returns the declared kind of key as text: "string", "list",
// "stream", or "none". A lazily-expired string is reported as "none".
func (k *Keyspace) Type(key string) string {
	k.mu.Lock()
	defer k.mu.Unlock()
	kind, ok := k.kinds[key]
	if !ok {
		return KindNone.String()
	}
	if kind == KindString && k.strings.expired(key, k.clock.NowMillis()) {
		k.strings.delete(key)
		delete(k.kinds, key)
		return KindNone.String()
	}
	return kind.String()
}

// FlushDB clears every store and kind binding. Outstanding BLPOP waiters
// are left registered: flushing a key is not one of the wake/timeout/
// cancel/shutdown events that ends a wait, so a waiter on a flushed key
// simply continues waiting for a future push.
func (k *Keyspace) FlushDB() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.kinds = make(map[string]Kind)
	k.strings.flush()
	k.lists.flush()
	k.streams.flush()
}
