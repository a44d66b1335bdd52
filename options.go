package diskv

import (
	"errors"
	"log/slog"
	"os"

	"github.com/meigma/diskv/cache"
	"github.com/meigma/diskv/codec"
	"github.com/meigma/diskv/storage"
)

// Option configures a Store.
type Option func(*Store) error

// DefaultCacheSize is the cache byte budget used when no cache option is
// given.
const DefaultCacheSize int64 = 32 << 20 // 32 MB

// --- Layout Options ---

// WithTransform sets the key-to-path mapping. Defaults to [Flat]. See
// [Block] and [Hashed] for sharded layouts.
func WithTransform(fn Transform) Option {
	return func(s *Store) error {
		if fn == nil {
			return errors.New("transform must not be nil")
		}
		s.transform = fn
		return nil
	}
}

// --- Caching Options ---

// WithCacheSizeMax sets the byte budget of the in-memory read cache,
// keeping the default LRU policy. Zero disables caching entirely: every
// read reaches disk. Negative values are not allowed.
func WithCacheSizeMax(n int64) Option {
	return func(s *Store) error {
		switch {
		case n < 0:
			return errors.New("cache size must be non-negative")
		case n == 0:
			s.cache = cache.NewNull()
		default:
			s.cache = cache.NewLRU(n)
		}
		return nil
	}
}

// WithCache sets a custom cache implementation, replacing the policy
// wholesale. See [cache.NewS3FIFO] for the scan-resistant alternative.
func WithCache(c cache.Cache) Option {
	return func(s *Store) error {
		if c == nil {
			return errors.New("cache must not be nil")
		}
		s.cache = c
		return nil
	}
}

// --- Encoding Options ---

// WithCodec sets the codec applied to values on their way to and from
// disk. Defaults to [codec.Identity]. The codec must stay fixed for the
// life of the data: values written under one codec are unreadable under
// another.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) error {
		if c == nil {
			return errors.New("codec must not be nil")
		}
		s.codec = c
		return nil
	}
}

// --- Durability Options ---

// WithSync sets the fsync discipline for writes. Defaults to
// [storage.SyncNone].
func WithSync(mode storage.SyncMode) Option {
	return func(s *Store) error {
		s.syncMode = mode
		return nil
	}
}

// WithFilePerm sets the permission bits for value files. Defaults to 0o600.
func WithFilePerm(mode os.FileMode) Option {
	return func(s *Store) error {
		s.filePerm = mode
		return nil
	}
}

// WithDirPerm sets the permission bits for created directories.
// Defaults to 0o700.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *Store) error {
		s.dirPerm = mode
		return nil
	}
}

// --- Enumeration Options ---

// WithIndex attaches an ordered key index, enabling [Store.KeysFrom] and
// ordered [Store.Keys] snapshots. The index is seeded from disk during New
// and maintained on every mutation. See [NewBTreeIndex].
func WithIndex(idx Index) Option {
	return func(s *Store) error {
		if idx == nil {
			return errors.New("index must not be nil")
		}
		s.index = idx
		return nil
	}
}

// --- Observability Options ---

// WithLogger sets a logger for non-fatal conditions such as temp file
// cleanup failures and incomplete enumeration walks. If nil, a discard
// logger is used (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}
