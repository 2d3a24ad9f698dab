package blobstore

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Zstd wraps a Store and compresses every blob with zstd. Names are passed
// through unchanged.
type Zstd struct {
	Store

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd wraps inner. level follows zstd's numeric levels (1-22); 0 selects
// the default level.
func NewZstd(inner Store, level int) (*Zstd, error) {
	encLevel := zstd.SpeedDefault
	if level > 0 {
		encLevel = zstd.EncoderLevelFromZstd(level)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &Zstd{Store: inner, enc: enc, dec: dec}, nil
}

// Put compresses data and writes it to the wrapped store.
func (z *Zstd) Put(ctx context.Context, name string, data []byte) error {
	return z.Store.Put(ctx, name, z.enc.EncodeAll(data, make([]byte, 0, len(data)/2)))
}

// Get reads the blob from the wrapped store and decompresses it.
func (z *Zstd) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := z.Store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	out, err := z.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("blobstore: decompress %s: %w", name, err)
	}
	return out, nil
}

// Close releases the codec resources. The wrapped store is not closed.
func (z *Zstd) Close() error {
	z.dec.Close()
	return z.enc.Close()
}
