package cache

import (
	"bytes"
	"container/list"
	"sync"
)

// S3FIFO is a byte-bounded cache using the S3-FIFO eviction algorithm:
// new entries enter a small probationary queue, entries accessed while
// probationary are promoted to the main queue, and a ghost queue of
// recently evicted keys routes returning keys straight to main. Scan-heavy
// workloads wash through the small queue without displacing the main one.
type S3FIFO struct {
	mu sync.Mutex

	max         int64
	smallTarget int64 // byte share of the small queue, ~10% of max
	size        int64

	items map[string]*s3Entry

	small     *list.List
	smallSize int64
	main      *list.List
	mainSize  int64

	// Ghost entries carry no values, just the sizes they had, bounded by
	// the same byte budget.
	ghost     *list.List
	ghostKeys map[string]*list.Element
	ghostSize int64

	hits      int64
	misses    int64
	evictions int64
}

type s3Entry struct {
	key     string
	val     []byte
	freq    int
	inSmall bool
	element *list.Element
}

type ghostEntry struct {
	key  string
	size int64
}

var _ Cache = (*S3FIFO)(nil)

// NewS3FIFO returns an S3-FIFO cache with the given byte budget.
func NewS3FIFO(maxBytes int64) *S3FIFO {
	smallTarget := maxBytes / 10
	if smallTarget < 1 {
		smallTarget = 1
	}
	return &S3FIFO{
		max:         maxBytes,
		smallTarget: smallTarget,
		items:       make(map[string]*s3Entry),
		small:       list.New(),
		main:        list.New(),
		ghost:       list.New(),
		ghostKeys:   make(map[string]*list.Element),
	}
}

func (c *S3FIFO) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	ent.freq++
	c.hits++
	return bytes.Clone(ent.val), true
}

func (c *S3FIFO) Put(key string, val []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.max <= 0 || int64(len(val)) > c.max {
		c.removeLocked(key)
		return
	}

	if ent, ok := c.items[key]; ok {
		delta := int64(len(val)) - int64(len(ent.val))
		ent.val = bytes.Clone(val)
		ent.freq++
		c.size += delta
		if ent.inSmall {
			c.smallSize += delta
		} else {
			c.mainSize += delta
		}
		c.evictToFit()
		return
	}

	// A key remembered in ghost was recently evicted; readmit it straight
	// to the main queue.
	inGhost := false
	if elem, ok := c.ghostKeys[key]; ok {
		inGhost = true
		c.ghostSize -= elem.Value.(*ghostEntry).size
		c.ghost.Remove(elem)
		delete(c.ghostKeys, key)
	}

	ent := &s3Entry{key: key, val: bytes.Clone(val), inSmall: !inGhost}
	if ent.inSmall {
		ent.element = c.small.PushBack(ent)
		c.smallSize += int64(len(ent.val))
	} else {
		ent.element = c.main.PushBack(ent)
		c.mainSize += int64(len(ent.val))
	}
	c.items[key] = ent
	c.size += int64(len(ent.val))

	c.evictToFit()
}

func (c *S3FIFO) evictToFit() {
	for c.size > c.max {
		switch {
		case c.small.Len() > 0 && (c.smallSize > c.smallTarget || c.main.Len() == 0):
			c.evictFromSmall()
		case c.main.Len() > 0:
			c.evictFromMain()
		case c.small.Len() > 0:
			c.evictFromSmall()
		default:
			return
		}
	}
}

// evictFromSmall scans the small queue head: accessed entries are promoted
// to main, the first untouched entry is evicted and remembered in ghost.
func (c *S3FIFO) evictFromSmall() {
	for c.small.Len() > 0 {
		elem := c.small.Front()
		ent := elem.Value.(*s3Entry)
		c.small.Remove(elem)
		c.smallSize -= int64(len(ent.val))

		if ent.freq > 0 {
			ent.freq = 0
			ent.inSmall = false
			ent.element = c.main.PushBack(ent)
			c.mainSize += int64(len(ent.val))
			continue
		}

		delete(c.items, ent.key)
		c.size -= int64(len(ent.val))
		c.evictions++
		c.addToGhost(ent.key, int64(len(ent.val)))
		return
	}
}

// evictFromMain gives accessed entries another lap before evicting.
func (c *S3FIFO) evictFromMain() {
	for c.main.Len() > 0 {
		elem := c.main.Front()
		ent := elem.Value.(*s3Entry)
		c.main.Remove(elem)

		if ent.freq > 0 {
			ent.freq--
			ent.element = c.main.PushBack(ent)
			continue
		}

		c.mainSize -= int64(len(ent.val))
		delete(c.items, ent.key)
		c.size -= int64(len(ent.val))
		c.evictions++
		c.addToGhost(ent.key, int64(len(ent.val)))
		return
	}
}

func (c *S3FIFO) addToGhost(key string, size int64) {
	for c.ghostSize+size > c.max && c.ghost.Len() > 0 {
		elem := c.ghost.Front()
		ge := elem.Value.(*ghostEntry)
		c.ghost.Remove(elem)
		delete(c.ghostKeys, ge.key)
		c.ghostSize -= ge.size
	}
	if size > c.max {
		return
	}
	c.ghostKeys[key] = c.ghost.PushBack(&ghostEntry{key: key, size: size})
	c.ghostSize += size
}

func (c *S3FIFO) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(key)
}

func (c *S3FIFO) removeLocked(key string) bool {
	ent, ok := c.items[key]
	if !ok {
		return false
	}
	if ent.inSmall {
		c.small.Remove(ent.element)
		c.smallSize -= int64(len(ent.val))
	} else {
		c.main.Remove(ent.element)
		c.mainSize -= int64(len(ent.val))
	}
	delete(c.items, key)
	c.size -= int64(len(ent.val))
	return true
}

func (c *S3FIFO) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

func (c *S3FIFO) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*s3Entry)
	c.small.Init()
	c.main.Init()
	c.ghost.Init()
	c.ghostKeys = make(map[string]*list.Element)
	c.size, c.smallSize, c.mainSize, c.ghostSize = 0, 0, 0, 0
}

func (c *S3FIFO) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *S3FIFO) MaxBytes() int64 { return c.max }

func (c *S3FIFO) Stats() Stats {
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
