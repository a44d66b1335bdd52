package diskv

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Transform maps a key to the relative path of its value file: zero or
// more directory segments followed by the file name, joined beneath the
// store root. Transforms must be pure functions of the key.
//
// Every built-in transform keeps the key itself as the final segment,
// which is what lets enumeration recover keys from file names. A custom
// transform that renames the final segment trades that away: Keys reports
// file names, not original keys, for such stores.
type Transform func(key string) []string

// Flat maps every key directly to a file under the root. It is the
// default. Fine for small stores; large flat directories degrade on most
// filesystems.
func Flat() Transform {
	return func(key string) []string {
		return []string{key}
	}
}

// Block shards keys into directories by fixed-width chunks of the key
// itself: depth chunks of width bytes become nested directories, then the
// key names the file. Keys shorter than width*depth produce fewer levels.
//
//	Block(2, 2): "house" -> ho/us/house
func Block(width, depth int) Transform {
	if width < 1 || depth < 1 {
		return Flat()
	}
	return func(key string) []string {
		segments := make([]string, 0, depth+1)
		for i := range depth {
			start := i * width
			if start >= len(key) {
				break
			}
			end := min(start+width, len(key))
			segments = append(segments, key[start:end])
		}
		return append(segments, key)
	}
}

// Hashed shards keys by their SHA-256 instead of their spelling: levels
// chunks of width hex characters become directories, then the key names
// the file. Directory fan-out stays balanced no matter how keys are
// distributed.
//
//	Hashed(2, 2): "house" -> d6/e2/house
func Hashed(levels, width int) Transform {
	if levels < 1 || width < 1 {
		return Flat()
	}
	return func(key string) []string {
		sum := sha256.Sum256([]byte(key))
		hexSum := hex.EncodeToString(sum[:])
		segments := make([]string, 0, levels+1)
		for i := 0; i < levels && (i+1)*width <= len(hexSum); i++ {
			segments = append(segments, hexSum[i*width:(i+1)*width])
		}
		return append(segments, key)
	}
}

// validKey reports whether key may name a value. Separators and NUL would
// escape the layout; dot-prefixed names are reserved for store internals.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, ".") {
		return false
	}
	return !strings.ContainsAny(key, "/\\\x00")
}

// validSegment guards transform output. Unlike keys, directory segments
// may start with a dot, which block transforms produce for keys containing
// dots.
func validSegment(seg string) bool {
	if seg == "" || seg == "." || seg == ".." {
		return false
	}
	return !strings.ContainsAny(seg, "/\\\x00")
}
