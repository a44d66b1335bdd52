package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

type gzipCodec struct {
	level int
}

// Gzip returns a gzip codec. Level follows the usual range, 1 (fastest)
// to 9 (best compression); out-of-range values clamp, 0 means the package
// default.
func Gzip(level int) Codec {
	switch {
	case level == 0:
		level = gzip.DefaultCompression
	case level < gzip.BestSpeed:
		level = gzip.BestSpeed
	case level > gzip.BestCompression:
		level = gzip.BestCompression
	}
	return &gzipCodec{level: level}
}

func (g *gzipCodec) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *gzipCodec) Decode(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := r.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}
