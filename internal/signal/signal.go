// Package signal implements a multicast observer whose subscriptions are
// owned by the subscriber.
//
// A Signal only holds weak references to its subscriptions. Releasing a
// Subscription, either by calling Unsubscribe or by dropping every reference
// to it, revokes the callback. Callbacks are invoked synchronously by Emit,
// on the emitting goroutine, with no internal lock held, so a callback may
// itself emit, subscribe or unsubscribe.
package signal

import (
	"runtime"
	"sync"
	"sync/atomic"
	"weak"
)

// Signal fans a value out to every live subscription. The zero value is
// ready to use. A Signal must not be copied after first use.
type Signal[T any] struct {
	mu      sync.Mutex
	lastID  uint64
	entries []entry[T]
}

type entry[T any] struct {
	id  uint64
	sub weak.Pointer[Subscription[T]]
}

// Subscription is the handle returned by Subscribe. Callback delivery lasts
// as long as the handle is reachable and Unsubscribe has not been called.
type Subscription[T any] struct {
	signal  *Signal[T]
	id      uint64
	fn      func(T)
	revoked atomic.Bool
	cleanup runtime.Cleanup
}

// Subscribe registers fn. Tokens are never reused, so a revoked token can
// never match a later subscription.
func (s *Signal[T]) Subscribe(fn func(T)) *Subscription[T] {
	if fn == nil {
		panic("signal: nil callback")
	}

	s.mu.Lock()
	s.lastID++
	sub := &Subscription[T]{signal: s, id: s.lastID, fn: fn}
	s.entries = append(s.entries, entry[T]{id: sub.id, sub: weak.Make(sub)})
	s.mu.Unlock()

	sub.cleanup = runtime.AddCleanup(sub, s.remove, sub.id)
	return sub
}

// Emit delivers v to every live subscription, in subscription order.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	if len(s.entries) == 0 {
		s.mu.Unlock()
		return
	}
	live := make([]*Subscription[T], 0, len(s.entries))
	kept := s.entries[:0]
	for _, e := range s.entries {
		if sub := e.sub.Value(); sub != nil {
			live = append(live, sub)
			kept = append(kept, e)
		}
	}
	clear(s.entries[len(kept):])
	s.entries = kept
	s.mu.Unlock()

	for _, sub := range live {
		if sub.revoked.Load() {
			continue
		}
		sub.fn(v)
	}
}

// Len returns the number of registered subscriptions that are still live.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, e := range s.entries {
		if sub := e.sub.Value(); sub != nil && !sub.revoked.Load() {
			n++
		}
	}
	return n
}

func (s *Signal[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Unsubscribe revokes the subscription. It is idempotent and safe to call
// from within the callback itself. An Emit that is already delivering to
// other subscribers will skip this one if it has not reached it yet.
func (x *Subscription[T]) Unsubscribe() {
	if x == nil || x.revoked.Swap(true) {
		return
	}
	x.cleanup.Stop()
	x.signal.remove(x.id)
}

// Active reports whether the subscription still receives values.
func (x *Subscription[T]) Active() bool {
	return x != nil && !x.revoked.Load()
}
