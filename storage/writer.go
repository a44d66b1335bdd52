package storage

import (
	"os"
	"path/filepath"
)

// Writer streams a value into a temp file beside its destination. Commit
// renames it into place atomically; Discard abandons it. Exactly one of
// the two must be called.
type Writer struct {
	engine    *Engine
	file      *os.File
	tmpPath   string
	finalPath string
}

// Writer begins a streaming write to the path. Nothing is visible at the
// path until Commit returns.
func (e *Engine) Writer(rel string) (*Writer, error) {
	path := e.path(rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, e.dirPerm); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, tmpPrefix)
	if err != nil {
		return nil, err
	}
	return &Writer{
		engine:    e,
		file:      tmp,
		tmpPath:   tmp.Name(),
		finalPath: path,
	}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

// Commit finalizes the write, applying the engine's sync discipline and
// renaming the temp file over the destination. On failure the temp file is
// removed and any previous destination content is untouched.
func (w *Writer) Commit() error {
	if err := w.engine.finishFile(w.file); err != nil {
		w.engine.removeTemp(w.tmpPath)
		return err
	}
	if err := os.Rename(w.tmpPath, w.finalPath); err != nil {
		w.engine.removeTemp(w.tmpPath)
		return err
	}
	return w.engine.syncDir(filepath.Dir(w.finalPath))
}

// Discard abandons the write and removes the temp file.
func (w *Writer) Discard() error {
	_ = w.file.Close() //nolint:errcheck // file is being discarded
	return os.Remove(w.tmpPath)
}
