package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Zstd returns a Zstandard codec. Level ranges 1 (fastest) to 4 (best
// compression); values outside that range clamp.
func Zstd(level int) Codec {
	lvl := zstd.SpeedDefault
	switch {
	case level <= 1:
		lvl = zstd.SpeedFastest
	case level >= 4:
		lvl = zstd.SpeedBestCompression
	case level == 3:
		lvl = zstd.SpeedBetterCompression
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(lvl), zstd.WithEncoderConcurrency(1)) //nolint:errcheck // options are valid
	dec, _ := zstd.NewReader(nil)                                                             //nolint:errcheck // options are valid
	return &zstdCodec{enc: enc, dec: dec}
}

func (z *zstdCodec) Encode(data []byte) ([]byte, error) {
	return z.enc.EncodeAll(data, nil), nil
}

func (z *zstdCodec) Decode(data []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}
