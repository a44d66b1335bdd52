package diskv

import (
	"io/fs"
	"iter"
	"log/slog"
	"path/filepath"
	"strings"
)

// Keys returns the keys holding persisted values. The set is a snapshot
// taken when Keys is called; keys written or deleted while iterating may
// or may not appear. Order is unspecified unless the store has an index,
// which yields ascending order; [Store.KeysFrom] paginates that order.
func (s *Store) Keys() iter.Seq[string] {
	return s.KeysPrefix("")
}

// KeysPrefix is Keys restricted to keys beginning with prefix. An empty
// prefix matches every key.
func (s *Store) KeysPrefix(prefix string) iter.Seq[string] {
	keys := s.snapshotKeys(prefix)
	return func(yield func(string) bool) {
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}

// KeysFrom returns up to n keys in ascending order, starting at the first
// key >= from. n <= 0 means no limit. Stores built without [WithIndex]
// return [ErrNoIndex].
func (s *Store) KeysFrom(from string, n int) ([]string, error) {
	if s.index == nil {
		return nil, ErrNoIndex
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Keys(from, n), nil
}

// Len reports the number of persisted keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index != nil {
		return s.index.Len()
	}
	return len(s.walkKeys(""))
}

// snapshotKeys collects the current key set under the read lock. The index
// serves it sorted when present; otherwise the root is walked.
func (s *Store) snapshotKeys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index != nil {
		keys := s.index.Keys(prefix, 0)
		// Ascending order makes the prefix range contiguous.
		for i, k := range keys {
			if !strings.HasPrefix(k, prefix) {
				return keys[:i]
			}
		}
		return keys
	}
	return s.walkKeys(prefix)
}

// walkKeys lists keys by walking the root. File names are the final
// transform segments, which for built-in transforms are the keys
// themselves. Dot-prefixed names are store internals, never keys. The walk
// is best-effort: an error ends it early with a warning, returning what
// was gathered.
func (s *Store) walkKeys(prefix string) []string {
	var keys []string
	err := filepath.WalkDir(s.engine.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if strings.HasPrefix(d.Name(), prefix) {
			keys = append(keys, d.Name())
		}
		return nil
	})
	if err != nil {
		s.log().Warn("key enumeration incomplete",
			slog.String("root", s.engine.Root()),
			slog.Any("error", err))
	}
	return keys
}
