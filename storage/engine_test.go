package storage

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestWriteRead(t *testing.T) {
	t.Parallel()

	e, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := []byte("hello")
	if err := e.Write("k", want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := e.Read("k")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Read() = %q, want %q", got, want)
	}
}

func TestWriteCreatesParents(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	e, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rel := filepath.Join("aa", "bb", "k")
	if err := e.Write(rel, []byte("nested")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
		t.Fatalf("expected file at %s: %v", rel, err)
	}
}

func TestWriteOverwrites(t *testing.T) {
	t.Parallel()

	e, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := e.Write("k", []byte("first")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := e.Write("k", []byte("second")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := e.Read("k")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("Read() = %q, want %q", got, "second")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	e, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := e.Write("k", []byte("v")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if names := tempFiles(t, root); len(names) != 0 {
		t.Fatalf("temp files left behind: %v", names)
	}
}

func TestFailedWriteKeepsOldContentAndCleansUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	e, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := e.Write("ok", []byte("previous")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// A directory squatting on the destination path makes the final rename
	// fail after the temp file has been written.
	if err := os.Mkdir(filepath.Join(root, "blocked"), 0o700); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := e.Write("blocked", []byte("nope")); err == nil {
		t.Fatal("Write() onto directory succeeded, want error")
	}

	got, err := e.Read("ok")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != "previous" {
		t.Fatalf("Read() = %q, want %q", got, "previous")
	}
	if names := tempFiles(t, root); len(names) != 0 {
		t.Fatalf("temp files left behind: %v", names)
	}
}

func TestReadMissing(t *testing.T) {
	t.Parallel()

	e, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := e.Read("missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Read() error = %v, want fs.ErrNotExist", err)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	e, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := e.Write("k", []byte("v")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := e.Remove("k"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if e.Exists("k") {
		t.Fatal("Exists() = true after Remove")
	}
	if err := e.Remove("k"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("second Remove() error = %v, want fs.ErrNotExist", err)
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	e, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if e.Exists("k") {
		t.Fatal("Exists() = true for missing file")
	}
	if err := e.Write("k", []byte("v")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !e.Exists("k") {
		t.Fatal("Exists() = false after Write")
	}

	// Directories are not values.
	if err := os.Mkdir(filepath.Join(root, "dir"), 0o700); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if e.Exists("dir") {
		t.Fatal("Exists() = true for directory")
	}
}

func TestNewRejectsFileRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "occupied")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := New(file); err == nil {
		t.Fatal("New() on file path succeeded, want error")
	}
}

func TestWriterCommit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	e, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	w, err := e.Writer("k")
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	if _, err := io.Copy(w, strings.NewReader("streamed value")); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	// Nothing visible before Commit.
	if e.Exists("k") {
		t.Fatal("Exists() = true before Commit")
	}

	if err := w.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	got, err := e.Read("k")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != "streamed value" {
		t.Fatalf("Read() = %q, want %q", got, "streamed value")
	}
	if names := tempFiles(t, root); len(names) != 0 {
		t.Fatalf("temp files left behind: %v", names)
	}
}

func TestWriterDiscard(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	e, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	w, err := e.Writer("k")
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	if _, err := w.Write([]byte("abandoned")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Discard(); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}

	if e.Exists("k") {
		t.Fatal("Exists() = true after Discard")
	}
	if names := tempFiles(t, root); len(names) != 0 {
		t.Fatalf("temp files left behind: %v", names)
	}
}

func TestEraseAll(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	e, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, rel := range []string{"a", filepath.Join("x", "b"), filepath.Join("x", "y", "c")} {
		if err := e.Write(rel, []byte("v")); err != nil {
			t.Fatalf("Write(%q) error = %v", rel, err)
		}
	}

	if err := e.EraseAll(); err != nil {
		t.Fatalf("EraseAll() error = %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("root not empty after EraseAll: %d entries", len(entries))
	}

	// Still usable.
	if err := e.Write("again", []byte("v")); err != nil {
		t.Fatalf("Write() after EraseAll error = %v", err)
	}
}

func TestFilePerm(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	e, err := New(root, WithFilePerm(0o644))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rel := filepath.Join("sub", "k")
	if err := e.Write(rel, []byte("v")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(root, rel))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o644 {
		t.Fatalf("file perm = %o, want 0o644", perm)
	}
}

func TestSyncModes(t *testing.T) {
	t.Parallel()

	for _, mode := range []SyncMode{SyncNone, SyncData, SyncFull} {
		e, err := New(t.TempDir(), WithSync(mode))
		if err != nil {
			t.Fatalf("New(mode %d) error = %v", mode, err)
		}
		if err := e.Write("k", []byte("v")); err != nil {
			t.Fatalf("Write(mode %d) error = %v", mode, err)
		}
		got, err := e.Read("k")
		if err != nil {
			t.Fatalf("Read(mode %d) error = %v", mode, err)
		}
		if string(got) != "v" {
			t.Fatalf("Read(mode %d) = %q, want %q", mode, got, "v")
		}
	}
}

func TestConcurrentOverwriteNeverTearsReads(t *testing.T) {
	t.Parallel()

	e, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	a := bytes.Repeat([]byte("a"), 8<<10)
	b := bytes.Repeat([]byte("b"), 8<<10)
	if err := e.Write("k", a); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			val := a
			if i%2 == 1 {
				val = b
			}
			if err := e.Write("k", val); err != nil {
				t.Errorf("Write() error = %v", err)
				return
			}
		}
	}()

	for range 200 {
		got, err := e.Read("k")
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if !bytes.Equal(got, a) && !bytes.Equal(got, b) {
			t.Fatalf("torn read: got %d bytes", len(got))
		}
	}
	close(stop)
	wg.Wait()
}

// tempFiles lists leftover temp files anywhere under root.
func tempFiles(t *testing.T, root string) []string {
	t.Helper()
	var names []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasPrefix(d.Name(), tmpPrefix) {
			names = append(names, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir() error = %v", err)
	}
	return names
}
