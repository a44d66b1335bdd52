package codec

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

type s2Codec struct{}

// S2 returns a codec using S2 block compression (improved Snappy). Fastest
// of the real codecs; moderate ratios.
func S2() Codec { return s2Codec{} }

func (s2Codec) Encode(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

func (s2Codec) Decode(data []byte) ([]byte, error) {
	out, err := s2.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}
