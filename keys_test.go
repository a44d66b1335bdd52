package diskv

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	want := []string{"alpha", "beta", "gamma"}
	for _, key := range want {
		require.NoError(t, s.Put(key, []byte(key)))
	}

	got := slices.Collect(s.Keys())
	assert.ElementsMatch(t, want, got)
	assert.Equal(t, len(want), s.Len())
}

func TestKeysPrefix(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	for _, key := range []string{"user-1", "user-2", "session-1"} {
		require.NoError(t, s.Put(key, []byte("v")))
	}

	got := slices.Collect(s.KeysPrefix("user-"))
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, got)

	all := slices.Collect(s.KeysPrefix(""))
	assert.Len(t, all, 3)

	none := slices.Collect(s.KeysPrefix("zzz"))
	assert.Empty(t, none)
}

func TestKeysEmptyStore(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	assert.Empty(t, slices.Collect(s.Keys()))
	assert.Zero(t, s.Len())
}

func TestKeysEarlyBreak(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	for _, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Put(key, []byte("v")))
	}

	var got []string
	for key := range s.Keys() {
		got = append(got, key)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
}

func TestKeysSkipsInternalFiles(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Put("real", []byte("v")))

	// Orphaned temp files and other dot-named files are store internals.
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), ".tmp-orphan"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), ".stray"), []byte("x"), 0o600))

	assert.Equal(t, []string{"real"}, slices.Collect(s.Keys()))
	assert.Equal(t, 1, s.Len())
}

func TestKeysWithBlockTransform(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, WithTransform(Block(2, 2)))
	want := []string{"house", "mouse", "spouse"}
	for _, key := range want {
		require.NoError(t, s.Put(key, []byte("v")))
	}

	// Keys come back whole despite the sharded directory layout.
	got := slices.Collect(s.Keys())
	assert.ElementsMatch(t, want, got)

	prefixed := slices.Collect(s.KeysPrefix("ho"))
	assert.Equal(t, []string{"house"}, prefixed)
}

func TestKeysReflectDeletes(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Put("keep", []byte("v")))
	require.NoError(t, s.Put("drop", []byte("v")))
	require.NoError(t, s.Delete("drop"))

	assert.Equal(t, []string{"keep"}, slices.Collect(s.Keys()))
}

func TestKeysFromRequiresIndex(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.KeysFrom("", 10)
	assert.ErrorIs(t, err, ErrNoIndex)
}

func TestKeysFromPaginates(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, WithIndex(NewBTreeIndex()))
	for _, key := range []string{"delta", "alpha", "echo", "bravo", "charlie"} {
		require.NoError(t, s.Put(key, []byte("v")))
	}

	page, err := s.KeysFrom("", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo"}, page)

	// The last key of a page seeds the next request.
	page, err = s.KeysFrom("bravo\x00", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "delta"}, page)

	page, err = s.KeysFrom("delta\x00", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo"}, page)

	all, err := s.KeysFrom("", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta", "echo"}, all)
}

func TestIndexedKeysAreSorted(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, WithIndex(NewBTreeIndex()))
	for _, key := range []string{"zeta", "alpha", "mu"} {
		require.NoError(t, s.Put(key, []byte("v")))
	}

	assert.Equal(t, []string{"alpha", "mu", "zeta"}, slices.Collect(s.Keys()))
	assert.Equal(t, 3, s.Len())
}

func TestIndexSeededOnOpen(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s1, err := New(root, WithTransform(Block(2, 1)))
	require.NoError(t, err)
	for _, key := range []string{"house", "mouse"} {
		require.NoError(t, s1.Put(key, []byte("v")))
	}

	// A store opened over existing data learns its keys.
	s2, err := New(root, WithTransform(Block(2, 1)), WithIndex(NewBTreeIndex()))
	require.NoError(t, err)

	keys, err := s2.KeysFrom("", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"house", "mouse"}, keys)
}

func TestIndexTracksDeletes(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, WithIndex(NewBTreeIndex()))
	require.NoError(t, s.Put("keep", []byte("v")))
	require.NoError(t, s.Put("drop", []byte("v")))
	require.NoError(t, s.Delete("drop"))

	keys, err := s.KeysFrom("", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, keys)
	assert.Equal(t, 1, s.Len())
}
