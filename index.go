package diskv

import (
	"sync"

	"github.com/google/btree"
)

// Index is an ordered view of the store's keys, maintained on every
// mutation and seeded from disk when the store opens. It exists for
// ordered and paginated enumeration; the store works fully without one.
//
// Implementations must be safe for concurrent use.
type Index interface {
	// Insert adds key. Inserting a present key is a no-op.
	Insert(key string)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string)

	// Keys returns up to n keys in ascending order, starting at the first
	// key >= from. n <= 0 means no limit; an empty from starts at the
	// beginning.
	Keys(from string, n int) []string

	// Clear removes every key.
	Clear()

	// Len reports the number of keys.
	Len() int
}

// BTreeIndex is a B-tree backed Index.
type BTreeIndex struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[string]
}

var _ Index = (*BTreeIndex)(nil)

// NewBTreeIndex returns an empty ordered index.
func NewBTreeIndex() *BTreeIndex {
	return &BTreeIndex{
		tree: btree.NewG(2, func(a, b string) bool { return a < b }),
	}
}

func (ix *BTreeIndex) Insert(key string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree.ReplaceOrInsert(key)
}

func (ix *BTreeIndex) Delete(key string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree.Delete(key)
}

func (ix *BTreeIndex) Keys(from string, n int) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var keys []string
	collect := func(key string) bool {
		if n > 0 && len(keys) >= n {
			return false
		}
		keys = append(keys, key)
		return true
	}
	if from == "" {
		ix.tree.Ascend(collect)
	} else {
		ix.tree.AscendGreaterOrEqual(from, collect)
	}
	return keys
}

func (ix *BTreeIndex) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree.Clear(false)
}

func (ix *BTreeIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Len()
}
