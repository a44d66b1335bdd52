// Package storage implements the file layer of the store: one value per
// file under a root directory, written atomically.
//
// Writes go to a temp file created in the destination directory and are
// renamed into place, so a reader observes the old content or the new,
// never a partial file. The package is path-oriented; it knows nothing of
// keys, caching, or locking.
package storage

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	defaultFilePerm = 0o600
	defaultDirPerm  = 0o700

	// tmpPrefix marks in-flight files. The dot prefix keeps them out of
	// key enumeration, which skips dot-named files.
	tmpPrefix = ".tmp-"
)

// SyncMode selects the fsync discipline applied when a write is finalized.
type SyncMode int

const (
	// SyncNone issues no fsync. Fastest; an OS crash can lose recent writes.
	SyncNone SyncMode = iota

	// SyncData fsyncs the temp file before it is renamed into place.
	SyncData

	// SyncFull additionally fsyncs the parent directory after the rename.
	SyncFull
)

// Engine stores byte values in files beneath a root directory. All paths
// are relative to the root; callers are responsible for producing safe
// segments. Engine methods are safe for concurrent use on distinct paths;
// coordinating writers of the same path is the caller's job.
type Engine struct {
	root     string
	filePerm os.FileMode
	dirPerm  os.FileMode
	syncMode SyncMode
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFilePerm sets the permission bits for value files. Defaults to 0o600.
func WithFilePerm(mode os.FileMode) Option {
	return func(e *Engine) {
		e.filePerm = mode
	}
}

// WithDirPerm sets the permission bits for created directories.
// Defaults to 0o700.
func WithDirPerm(mode os.FileMode) Option {
	return func(e *Engine) {
		e.dirPerm = mode
	}
}

// WithSync sets the fsync discipline. Defaults to SyncNone.
func WithSync(mode SyncMode) Option {
	return func(e *Engine) {
		e.syncMode = mode
	}
}

// WithLogger sets the logger for non-fatal conditions such as temp file
// cleanup failures. Defaults to discarding.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine rooted at root, creating the directory if needed.
// It fails if root exists as a non-directory or is not writable; the write
// probe uses the same temp mechanism real writes use.
func New(root string, opts ...Option) (*Engine, error) {
	if root == "" {
		return nil, errors.New("storage: empty root")
	}
	e := &Engine{
		root:     root,
		filePerm: defaultFilePerm,
		dirPerm:  defaultDirPerm,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := os.MkdirAll(root, e.dirPerm); err != nil {
		return nil, err
	}
	probe, err := os.CreateTemp(root, tmpPrefix)
	if err != nil {
		return nil, err
	}
	name := probe.Name()
	if err := probe.Close(); err != nil {
		e.removeTemp(name)
		return nil, err
	}
	if err := os.Remove(name); err != nil {
		return nil, err
	}
	return e, nil
}

// Root returns the directory under which all files live.
func (e *Engine) Root() string { return e.root }

func (e *Engine) path(rel string) string { return filepath.Join(e.root, rel) }

// Write stores data at the path atomically. On any failure the previous
// file content, if any, is untouched and the temp file is removed.
func (e *Engine) Write(rel string, data []byte) error {
	path := e.path(rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, e.dirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, tmpPrefix)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		e.removeTemp(tmpPath)
		return err
	}
	if err := e.finishFile(tmp); err != nil {
		e.removeTemp(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		e.removeTemp(tmpPath)
		return err
	}
	return e.syncDir(dir)
}

// finishFile applies permissions and the sync discipline, then closes f.
func (e *Engine) finishFile(f *os.File) error {
	if err := f.Chmod(e.filePerm); err != nil {
		f.Close()
		return err
	}
	if e.syncMode != SyncNone {
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

func (e *Engine) syncDir(dir string) error {
	if e.syncMode != SyncFull {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	err = d.Sync()
	if cerr := d.Close(); err == nil {
		err = cerr
	}
	return err
}

func (e *Engine) removeTemp(path string) {
	if err := os.Remove(path); err != nil {
		e.log().Warn("temp file cleanup failed",
			slog.String("path", path),
			slog.Any("error", err))
	}
}

// Read returns the full contents of the file at the path. Absence reports
// an error satisfying errors.Is(err, fs.ErrNotExist).
func (e *Engine) Read(rel string) ([]byte, error) {
	return os.ReadFile(e.path(rel))
}

// Open returns a handle for streaming reads, with the same absence
// semantics as Read.
func (e *Engine) Open(rel string) (*os.File, error) {
	return os.Open(e.path(rel))
}

// Remove deletes the file at the path. Absence reports an error satisfying
// errors.Is(err, fs.ErrNotExist); the caller decides idempotency policy.
func (e *Engine) Remove(rel string) error {
	return os.Remove(e.path(rel))
}

// Exists reports whether a regular file is present at the path.
func (e *Engine) Exists(rel string) bool {
	info, err := os.Stat(e.path(rel))
	return err == nil && info.Mode().IsRegular()
}

// EraseAll removes everything under the root and recreates it empty.
func (e *Engine) EraseAll() error {
	if err := os.RemoveAll(e.root); err != nil {
		return err
	}
	return os.MkdirAll(e.root, e.dirPerm)
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.New(slog.DiscardHandler)
}
