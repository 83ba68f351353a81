// Package compiler ties the pass pipeline and linearizer together behind
// the concurrency and caching contract of spec.md §5. Grounded on
// original_source/sonolus/build/compile.py.
package compiler

import (
	"sync"

	"github.com/sasha-s/go-deadlock"

	"sonobackend/internal/backend"
)

type cacheEntry struct {
	node backend.Node
	err  error
}

// CompileCache is a single-producer-per-key cache from a structural CFG
// hash (HashCFG) to its compiled output, the same contract as the
// original's CompileCache: the first caller to ask about a hash becomes
// responsible for compiling it and calling Set; every other caller blocks
// until that happens. Unlike the original, a cacheEntry also carries the
// compile error — the Python version has no failure path to cache because
// an exception there simply propagates past the lock. A producer whose
// compile returned an error still calls Set, so every waiter on that hash
// receives the error; a producer that panics or never calls Set leaves
// those waiters blocked.
type CompileCache struct {
	mu    deadlock.Mutex
	cond  *sync.Cond
	cache map[uint64]*cacheEntry
}

// NewCompileCache returns an empty cache.
func NewCompileCache() *CompileCache {
	c := &CompileCache{cache: map[uint64]*cacheEntry{}}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Get looks up hash. If no caller has claimed it yet, Get claims it for
// the current caller and returns claimed=false — that caller must
// eventually call Set for the same hash. If hash is already claimed, Get
// blocks until the claiming caller's Set call completes, then returns its
// result with claimed=true.
func (c *CompileCache) Get(hash uint64) (node backend.Node, err error, claimed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, exists := c.cache[hash]
	if !exists {
		c.cache[hash] = nil // present but nil: claimed, compile in progress
		return nil, nil, false
	}
	for entry == nil {
		c.cond.Wait()
		entry = c.cache[hash]
	}
	return entry.node, entry.err, true
}

// Set completes hash's entry and wakes every goroutine waiting on any key
// in this cache — a single broadcast condition, coarser than a per-key
// signal but correct, matching the original's single shared Event.
func (c *CompileCache) Set(hash uint64, node backend.Node, err error) {
	c.mu.Lock()
	c.cache[hash] = &cacheEntry{node: node, err: err}
	c.mu.Unlock()
	c.cond.Broadcast()
}
