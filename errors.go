package diskv

import (
	"errors"
	"fmt"

	"github.com/meigma/diskv/codec"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a key has no value anywhere in the store.
	ErrNotFound = errors.New("diskv: key not found")

	// ErrInvalidKey is returned when a key, or a path segment produced for
	// it, cannot name a file safely.
	ErrInvalidKey = errors.New("diskv: invalid key")

	// ErrInvalidRoot is returned by New when the base directory cannot be
	// created, is not a directory, or is not writable.
	ErrInvalidRoot = errors.New("diskv: invalid root")

	// ErrCorrupt is returned when stored bytes cannot be decoded by the
	// configured codec.
	ErrCorrupt = codec.ErrCorrupt

	// ErrNoIndex is returned by KeysFrom on stores built without an index.
	ErrNoIndex = errors.New("diskv: no index configured")
)

// WriteError reports a failed mutation: a put, streamed write, or delete
// that did not take effect. The previous state of the key is intact.
type WriteError struct {
	Key  string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("diskv: write %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError reports a failed read: the value file could not be read, or
// its contents could not be decoded. Decode failures carry ErrCorrupt in
// their chain.
type ReadError struct {
	Key  string
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("diskv: read %q: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
