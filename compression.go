package zarr

import (
	"io"

	"github.com/qri-io/dataset/compression"
)

// CompressionMeta defines compression settings for stored chunks
type CompressionMeta struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

// NewCompressionMeta returns chunk compression settings for codec id, or nil
// when id is empty, which stores chunks uncompressed
func NewCompressionMeta(id string) (*CompressionMeta, error) {
	if id == "" {
		return nil, nil
	}
	if _, err := compression.ParseFormat(id); err != nil {
		return nil, err
	}
	return &CompressionMeta{ID: id}, nil
}

func (m *CompressionMeta) Decompressor(r io.ReadCloser) (io.ReadCloser, error) {
	if m == nil {
		return r, nil
	}
	return compression.Decompressor(m.ID, r)
}

// Compressor wraps w so bytes written to it are stored compressed. Callers
// must Close the returned writer to flush it.
func (m *CompressionMeta) Compressor(w io.Writer) (io.WriteCloser, error) {
	if m == nil {
		return nopWriteCloser{w}, nil
	}
	return compression.Compressor(m.ID, w)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
