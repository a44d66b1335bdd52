// Package codec provides byte-level encodings applied to values before they
// reach disk. A codec transforms whole values; it never sees keys or paths.
//
// The round-trip law holds for every implementation: Decode(Encode(v))
// returns bytes equal to v. Decode reports ErrCorrupt when its input was not
// produced by a matching Encode.
package codec

import "errors"

// ErrCorrupt is returned (wrapped) by Decode when the input is not valid
// output of the matching Encode. Callers detect it with errors.Is.
var ErrCorrupt = errors.New("codec: corrupt data")

// Codec encodes values on the way to disk and decodes them on the way back.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode transforms plaintext into its stored representation.
	Encode(data []byte) ([]byte, error)

	// Decode is the inverse of Encode. Input that Encode did not produce
	// yields an error wrapping ErrCorrupt, never silently wrong bytes.
	Decode(data []byte) ([]byte, error)
}

type identity struct{}

// Identity returns the pass-through codec. Values are stored as given.
func Identity() Codec { return identity{} }

func (identity) Encode(data []byte) ([]byte, error) { return data, nil }
func (identity) Decode(data []byte) ([]byte, error) { return data, nil }
