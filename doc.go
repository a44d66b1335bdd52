// Package diskv provides a disk-backed key-value store with a bounded
// in-memory read cache.
//
// Every value lives in its own file beneath a root directory, written
// atomically: values go to a temp file in the destination directory and
// are renamed into place, so readers see the old value or the new, never
// a torn one. Disk is the source of truth; the cache only accelerates
// repeated reads and is rebuilt from nothing on restart.
//
// Keys map to paths through a pluggable [Transform] ([Flat], [Block],
// [Hashed]), and values pass through a pluggable [codec.Codec] for
// on-disk compression.
//
// # Quick Start
//
//	store, err := diskv.New("/var/lib/myapp/data")
//	if err != nil {
//	    return err
//	}
//	if err := store.Put("alpha", []byte("value")); err != nil {
//	    return err
//	}
//	val, err := store.Get("alpha")
//
// # Layout and Compression
//
// Shard large stores into directories and compress values on disk:
//
//	store, err := diskv.New(dir,
//	    diskv.WithTransform(diskv.Block(2, 2)),
//	    diskv.WithCodec(codec.Zstd(2)),
//	    diskv.WithCacheSizeMax(256<<20),
//	)
//
// # Streaming and Enumeration
//
// [Store.ReadStream] and [Store.WriteStream] move large values without
// buffering them whole (with the identity codec). [Store.Keys] and
// [Store.KeysPrefix] iterate a snapshot of persisted keys; add an ordered
// index with [WithIndex] for sorted, paginated enumeration via
// [Store.KeysFrom].
package diskv
