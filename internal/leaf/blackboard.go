package leaf

import (
	"maps"
	"slices"
	"sync"
)

// Blackboard is a thread-safe key-value store shared by the leaves of a
// tree. The zero value is ready to use.
type Blackboard struct {
	mu   sync.RWMutex
	data map[string]any
}

// Get returns nil if key is not set.
func (b *Blackboard) Get(key string) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data[key]
}

// Lookup reports whether key is set, alongside its value.
func (b *Blackboard) Lookup(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok
}

func (b *Blackboard) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		b.data = make(map[string]any)
	}
	b.data[key] = value
}

func (b *Blackboard) Has(key string) bool {
	_, ok := b.Lookup(key)
	return ok
}

func (b *Blackboard) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
}

// Keys returns the keys in sorted order.
func (b *Blackboard) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Sorted(maps.Keys(b.data))
}

func (b *Blackboard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

func (b *Blackboard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.data)
}

// Snapshot returns a shallow copy of the data, suitable as an expression
// environment. Mutable values (slices, maps, pointers) are shared with the
// blackboard.
func (b *Blackboard) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.data))
	maps.Copy(out, b.data)
	return out
}
