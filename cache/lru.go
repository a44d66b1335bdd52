package cache

import (
	"bytes"
	"container/list"
	"sync"
)

// LRU is a byte-bounded cache that evicts the least recently used entry
// first. Get refreshes an entry's recency; Contains does not.
type LRU struct {
	mu    sync.Mutex
	max   int64
	size  int64
	order *list.List // front is most recently used
	items map[string]*list.Element

	hits      int64
	misses    int64
	evictions int64
}

type lruEntry struct {
	key string
	val []byte
}

var _ Cache = (*LRU)(nil)

// NewLRU returns an LRU cache with the given byte budget. A budget of zero
// or less admits nothing; callers wanting caching fully disabled are better
// served by Null.
func NewLRU(maxBytes int64) *LRU {
	return &LRU{
		max:   maxBytes,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(elem)
	c.hits++
	return bytes.Clone(elem.Value.(*lruEntry).val), true
}

func (c *LRU) Put(key string, val []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.max <= 0 || int64(len(val)) > c.max {
		// Too large to ever fit. Drop any previous value so an overwrite
		// cannot leave stale bytes behind.
		c.removeLocked(key)
		return
	}

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*lruEntry)
		c.size += int64(len(val)) - int64(len(ent.val))
		ent.val = bytes.Clone(val)
		c.order.MoveToFront(elem)
	} else {
		ent := &lruEntry{key: key, val: bytes.Clone(val)}
		c.items[key] = c.order.PushFront(ent)
		c.size += int64(len(val))
	}

	// The new entry fits on its own, so evicting from the back always
	// terminates without touching it.
	for c.size > c.max {
		c.evictOldest()
	}
}

func (c *LRU) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	ent := elem.Value.(*lruEntry)
	c.order.Remove(elem)
	delete(c.items, ent.key)
	c.size -= int64(len(ent.val))
	c.evictions++
}

func (c *LRU) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(key)
}

func (c *LRU) removeLocked(key string) bool {
	elem, ok := c.items[key]
	if !ok {
		return false
	}
	ent := elem.Value.(*lruEntry)
	c.order.Remove(elem)
	delete(c.items, key)
	c.size -= int64(len(ent.val))
	return true
}

func (c *LRU) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
	c.size = 0
}

func (c *LRU) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *LRU) MaxBytes() int64 { return c.max }

func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   len(c.items),
		SizeBytes: c.size,
		MaxBytes:  c.max,
	}
}
