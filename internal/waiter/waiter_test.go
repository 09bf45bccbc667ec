package waiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeList is a minimal single-key list used to hand NotifyPush a real pop
// function, mirroring how the keyspace would drive this in production.
type fakeList struct {
	mu     sync.Mutex
	values []string
}

func (l *fakeList) push(v string) {
	l.mu.Lock()
	l.values = append(l.values, v)
	l.mu.Unlock()
}

func (l *fakeList) popHead() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.values) == 0 {
		return nil, false
	}
	v := l.values[0]
	l.values = l.values[1:]
	return []byte(v), true
}

func TestFIFOFairness(t *testing.T) {
	w := New()
	list := &fakeList{}

	r1 := w.Register([]string{"q"})
	r2 := w.Register([]string{"q"})

	results := make(chan Delivery, 2)
	go func() {
		d, ok := r1.Wait(context.Background(), 0)
		require.True(t, ok)
		results <- d
	}()
	// Ensure r1 is registered before r2 waits, to pin FIFO order; both are
	// already registered synchronously above, so just give r1's goroutine a
	// moment to reach its select.
	time.Sleep(10 * time.Millisecond)
	go func() {
		d, ok := r2.Wait(context.Background(), 0)
		require.True(t, ok)
		results <- d
	}()
	time.Sleep(10 * time.Millisecond)

	list.push("first")
	require.True(t, w.NotifyPush("q", list.popHead))
	first := <-results
	assert.Equal(t, "first", string(first.Value))

	list.push("second")
	require.True(t, w.NotifyPush("q", list.popHead))
	second := <-results
	assert.Equal(t, "second", string(second.Value))
}

func TestLivenessUnderCancellation(t *testing.T) {
	w := New()
	list := &fakeList{}

	ctx1, cancel1 := context.WithCancel(context.Background())
	r1 := w.Register([]string{"q"})
	r2 := w.Register([]string{"q"})

	done1 := make(chan struct{})
	go func() {
		_, ok := r1.Wait(ctx1, 0)
		assert.False(t, ok)
		close(done1)
	}()

	results := make(chan Delivery, 1)
	go func() {
		d, ok := r2.Wait(context.Background(), 0)
		require.True(t, ok)
		results <- d
	}()

	cancel1()
	<-done1

	list.push("value")
	require.True(t, w.NotifyPush("q", list.popHead))

	select {
	case d := <-results:
		assert.Equal(t, "value", string(d.Value))
	case <-time.After(time.Second):
		t.Fatal("r2 was never woken after r1 cancelled")
	}
}

func TestZeroTimeoutNeverFiresEarly(t *testing.T) {
	w := New()
	r := w.Register([]string{"q"})
	done := make(chan struct{})
	go func() {
		_, ok := r.Wait(context.Background(), 0)
		assert.True(t, ok)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("zero timeout resolved before any push")
	case <-time.After(100 * time.Millisecond):
	}

	list := &fakeList{}
	list.push("v")
	w.NotifyPush("q", list.popHead)
	<-done
}

func TestTimeoutResolvesToFalse(t *testing.T) {
	w := New()
	r := w.Register([]string{"absent"})
	start := time.Now()
	d, ok := r.Wait(context.Background(), 100*time.Millisecond)
	elapsed := time.Since(start)
	assert.False(t, ok)
	assert.Equal(t, Delivery{}, d)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
}

func TestNotifyPushNoWaiterReturnsFalse(t *testing.T) {
	w := New()
	list := &fakeList{}
	list.push("v")
	assert.False(t, w.NotifyPush("nobody-waiting", list.popHead))
}

func TestRegistrationCrossKeyCleanupOnWake(t *testing.T) {
	w := New()
	list := &fakeList{}
	r := w.Register([]string{"a", "b", "c"})

	done := make(chan struct{})
	go func() {
		d, ok := r.Wait(context.Background(), 0)
		require.True(t, ok)
		assert.Equal(t, "b", d.Key)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)

	list.push("val")
	require.True(t, w.NotifyPush("b", list.popHead))
	<-done

	assert.Equal(t, 0, w.Len("a"))
	assert.Equal(t, 0, w.Len("b"))
	assert.Equal(t, 0, w.Len("c"))
}
