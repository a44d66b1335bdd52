package diskv

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"

	"github.com/meigma/diskv/codec"
)

// ReadStream returns the value under key as a stream. Cache hits stream
// from memory. With the identity codec a miss streams straight from the
// file, without buffering the value or populating the cache; the file
// handle keeps serving the version opened even if the key is overwritten
// or deleted mid-stream. Other codecs must decode whole values, so their
// misses load and cache the value like Get.
//
// The caller must close the returned reader.
func (s *Store) ReadStream(key string) (io.ReadCloser, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if val, ok := s.cache.Get(key); ok {
		return io.NopCloser(bytes.NewReader(val)), nil
	}

	if s.codec == codec.Identity() {
		f, err := s.engine.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, ErrNotFound
			}
			return nil, &ReadError{Key: key, Path: path, Err: err}
		}
		return f, nil
	}

	val, err := s.readMiss(key, path)
	if err != nil {
		return nil, err
	}
	// bytes.Reader only reads the flight-shared slice, so no copy is
	// needed before handing it out.
	return io.NopCloser(bytes.NewReader(val)), nil
}

// WriteStream stores the contents of r under key. With the identity codec
// the value streams through a temp file and is renamed into place on
// success, never held in memory whole; other codecs buffer and encode
// first, then write atomically like Put.
//
// Streamed values evict any cached value for key instead of replacing it:
// values written by streaming tend to be the large ones, and caching them
// would wash out the working set. A failed write leaves the previous
// value untouched.
func (s *Store) WriteStream(key string, r io.Reader) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}

	if s.codec != codec.Identity() {
		return s.writeStreamEncoded(key, path, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.engine.Writer(path)
	if err != nil {
		return &WriteError{Key: key, Path: path, Err: err}
	}
	if _, err := io.Copy(w, r); err != nil {
		if derr := w.Discard(); derr != nil {
			s.log().Warn("stream discard failed",
				slog.String("key", key),
				slog.Any("error", derr))
		}
		return &WriteError{Key: key, Path: path, Err: err}
	}
	if err := w.Commit(); err != nil {
		return &WriteError{Key: key, Path: path, Err: err}
	}

	s.finishStreamWrite(key)
	return nil
}

func (s *Store) writeStreamEncoded(key, path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return &WriteError{Key: key, Path: path, Err: err}
	}
	encoded, err := s.codec.Encode(data)
	if err != nil {
		return &WriteError{Key: key, Path: path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Write(path, encoded); err != nil {
		return &WriteError{Key: key, Path: path, Err: err}
	}
	s.finishStreamWrite(key)
	return nil
}

// finishStreamWrite applies the post-write bookkeeping shared by both
// stream paths. The caller must hold the write lock.
func (s *Store) finishStreamWrite(key string) {
	s.cache.Remove(key)
	if s.index != nil {
		s.index.Insert(key)
	}
}
