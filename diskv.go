package diskv

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/meigma/diskv/cache"
	"github.com/meigma/diskv/codec"
	"github.com/meigma/diskv/storage"
)

// Store is a disk-backed key-value store. Disk is the source of truth: a
// put is not acknowledged until its file is durably renamed into place,
// and a bounded in-memory cache serves repeated reads. Keys map to file
// paths through a pluggable [Transform]; values pass through a pluggable
// [codec.Codec].
//
// A Store is safe for concurrent use. Reads share the store; mutations are
// exclusive. The cache is never populated with a value that disk does not
// hold at that moment.
type Store struct {
	root string

	// mu is the whole-store reader/writer lock. Get, Has, Keys and
	// ReadStream share it; Put, Delete, WriteStream and EraseAll exclude.
	// A read miss keeps holding the shared lock through the disk read,
	// decode, and cache insert, so a concurrent delete cannot slip between
	// the disk read and the insert and leave the cache serving a deleted
	// value.
	mu sync.RWMutex

	engine    *storage.Engine
	cache     cache.Cache
	codec     codec.Codec
	transform Transform
	index     Index

	// readGroup collapses concurrent misses of the same key into one disk
	// read. Zero value is ready to use.
	readGroup singleflight.Group

	filePerm os.FileMode
	dirPerm  os.FileMode
	syncMode storage.SyncMode
	logger   *slog.Logger
}

// New creates or opens a store rooted at root, creating the directory if
// needed. It returns an error wrapping [ErrInvalidRoot] when root exists
// as a non-directory or is not writable.
func New(root string, opts ...Option) (*Store, error) {
	s := &Store{
		root:      root,
		cache:     cache.NewLRU(DefaultCacheSize),
		codec:     codec.Identity(),
		transform: Flat(),
		filePerm:  0o600,
		dirPerm:   0o700,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	engine, err := storage.New(root,
		storage.WithFilePerm(s.filePerm),
		storage.WithDirPerm(s.dirPerm),
		storage.WithSync(s.syncMode),
		storage.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	s.engine = engine

	if s.index != nil {
		s.index.Clear()
		for _, key := range s.walkKeys("") {
			s.index.Insert(key)
		}
	}
	return s, nil
}

// Root returns the directory the store lives under.
func (s *Store) Root() string { return s.root }

// pathFor maps key through the transform and validates every segment, so
// no transform output can escape the root.
func (s *Store) pathFor(key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	segments := s.transform(key)
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: transform returned no segments for %q", ErrInvalidKey, key)
	}
	for _, seg := range segments {
		if !validSegment(seg) {
			return "", fmt.Errorf("%w: segment %q for key %q", ErrInvalidKey, seg, key)
		}
	}
	return filepath.Join(segments...), nil
}

// Get returns the value stored under key. The returned slice is the
// caller's to keep and mutate.
//
// Misses read disk, decode, and admit the value to the cache while still
// holding the shared lock; concurrent misses of the same key share one
// disk read.
func (s *Store) Get(key string) ([]byte, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if val, ok := s.cache.Get(key); ok {
		return val, nil
	}
	val, err := s.readMiss(key, path)
	if err != nil {
		return nil, err
	}
	// Flights are shared between waiters; each caller gets its own copy.
	return bytes.Clone(val), nil
}

// readMiss loads a value from disk through the singleflight group and
// admits it to the cache. The caller must hold the read lock. The returned
// slice is shared with other waiters of the same flight and must be copied
// before it is handed to anything that may mutate it.
func (s *Store) readMiss(key, path string) ([]byte, error) {
	val, err, _ := s.readGroup.Do(key, func() (any, error) {
		// An earlier flight may have admitted the value while this caller
		// waited on the group.
		if val, ok := s.cache.Get(key); ok {
			return val, nil
		}
		raw, err := s.engine.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, ErrNotFound
			}
			return nil, &ReadError{Key: key, Path: path, Err: err}
		}
		plain, err := s.codec.Decode(raw)
		if err != nil {
			return nil, &ReadError{Key: key, Path: path, Err: err}
		}
		s.cache.Put(key, plain)
		return plain, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]byte), nil
}

// Put stores val under key. The value is encoded, written to a temp file
// beside its destination, and renamed into place; only then is the cache
// updated, with the unencoded bytes. A failed put leaves the previous
// value, on disk and in the cache, untouched.
//
// The store copies what it needs: the caller keeps ownership of val.
func (s *Store) Put(key string, val []byte) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}

	encoded, err := s.codec.Encode(val)
	if err != nil {
		return &WriteError{Key: key, Path: path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Write(path, encoded); err != nil {
		return &WriteError{Key: key, Path: path, Err: err}
	}
	s.cache.Put(key, val)
	if s.index != nil {
		s.index.Insert(key)
	}
	return nil
}

// Delete removes key from the store. Disk is authoritative, so the file
// is removed first and the cache entry after; a crash between the two
// steps costs a stale cache entry for at most the life of the process,
// never a resurrected value on disk.
//
// Deleting a key that exists nowhere returns [ErrNotFound].
func (s *Store) Delete(key string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	onDisk := true
	if err := s.engine.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return &WriteError{Key: key, Path: path, Err: err}
		}
		onDisk = false
	}
	cached := s.cache.Remove(key)
	if s.index != nil {
		s.index.Delete(key)
	}
	if !onDisk && !cached {
		return ErrNotFound
	}
	return nil
}

// Has reports whether key has a value, consulting the cache first and
// disk second. It never reads value bytes, never populates the cache, and
// never disturbs eviction order. Invalid keys report false.
func (s *Store) Has(key string) bool {
	path, err := s.pathFor(key)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cache.Contains(key) || s.engine.Exists(path)
}

// EraseAll removes every key: the cache, the index, and the whole
// directory tree under the root. The store remains usable.
func (s *Store) EraseAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.EraseAll(); err != nil {
		return fmt.Errorf("diskv: erase all: %w", err)
	}
	s.cache.Clear()
	if s.index != nil {
		s.index.Clear()
	}
	return nil
}

// CacheStats returns a snapshot of the read cache's counters.
func (s *Store) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func (s *Store) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.New(slog.DiscardHandler)
}
