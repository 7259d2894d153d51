package chain

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type cacheKey struct {
	contract common.Address
	method   string
	args     string // hex of packed arguments
}

type cacheEntry struct {
	account common.Address
	values  []any
}

// Cache holds contract read results keyed by contract, method and
// arguments. Entries are only dropped by Invalidate.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]cacheEntry)}
}

func (c *Cache) get(k cacheKey) ([]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	return e.values, ok
}

func (c *Cache) put(k cacheKey, account common.Address, values []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = cacheEntry{account: account, values: values}
}

// Invalidate drops every entry matched by e.
func (c *Cache) Invalidate(e Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, entry := range c.entries {
		if e.Matches(k.contract, k.method, entry.account) {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of cached reads.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
