package leaf

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/expr-lang/expr/vm"
)

// DefaultExprCacheSize bounds the shared cache of compiled expressions.
const DefaultExprCacheSize = 1000

var exprCache = NewExprLRUCache(DefaultExprCacheSize)

// SetExprCacheSize resizes the shared expression cache, evicting the least
// recently used programs if it shrinks.
func SetExprCacheSize(size int) {
	exprCache.Resize(size)
}

// ExprLRUCache is a bounded, thread-safe LRU of compiled expr-lang
// programs keyed by source text.
type ExprLRUCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	lru     *list.List
	maxSize int
	hits    int64
	misses  int64
}

type cacheEntry struct {
	expression string
	program    *vm.Program
}

// NewExprLRUCache uses DefaultExprCacheSize if maxSize is not positive.
func NewExprLRUCache(maxSize int) *ExprLRUCache {
	if maxSize < 1 {
		maxSize = DefaultExprCacheSize
	}
	return &ExprLRUCache{
		items:   make(map[string]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get marks the entry as most recently used.
func (c *ExprLRUCache) Get(expression string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[expression]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).program, true
}

func (c *ExprLRUCache) Put(expression string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[expression]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).program = program
		return
	}
	c.items[expression] = c.lru.PushFront(&cacheEntry{expression: expression, program: program})
	c.evictLocked()
}

// Resize clamps maxSize to at least 1.
func (c *ExprLRUCache) Resize(maxSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = max(maxSize, 1)
	c.evictLocked()
}

func (c *ExprLRUCache) evictLocked() {
	for c.lru.Len() > c.maxSize {
		elem := c.lru.Back()
		delete(c.items, elem.Value.(*cacheEntry).expression)
		c.lru.Remove(elem)
	}
}

func (c *ExprLRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
	c.lru.Init()
}

func (c *ExprLRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns the size, hit and miss counts, and hit ratio.
func (c *ExprLRUCache) Stats() (size int, hits, misses int64, ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if total := c.hits + c.misses; total > 0 {
		ratio = float64(c.hits) / float64(total)
	}
	return c.lru.Len(), c.hits, c.misses, ratio
}

func (c *ExprLRUCache) String() string {
	size, hits, misses, ratio := c.Stats()
	return fmt.Sprintf("ExprLRUCache{size=%d, hits=%d, misses=%d, hit_ratio=%.2f%%}",
		size, hits, misses, ratio*100)
}
