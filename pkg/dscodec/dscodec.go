// Package dscodec encodes a collection of labeled examples into one
// contiguous binary blob and back.
//
// Format:
//
//	[8B descriptor "TFJSSCDS"] [4B version] [4B manifest length N]
//	[N bytes manifest: UTF-8 JSON array of Entry]
//	For each manifest entry, in order:
//	  [numFrames × frameSize × 4B float32 spectrogram]
//	  [rawAudioNumSamples × 4B float32 raw audio] (only if present)
//
// All integers and floats are little-endian. Payload spans are not indexed;
// they are recomputed from the manifest and sliced sequentially, so entries
// must be processed in manifest order.
package dscodec

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/haivivi/speechset/pkg/dserr"
)

// Descriptor identifies the format. It never changes across versions.
const Descriptor = "TFJSSCDS"

// Version is the format version written by Encode.
const Version uint32 = 1

// headerSize is descriptor + version + manifest length.
const headerSize = len(Descriptor) + 4 + 4

// ErrFormat is returned when a blob cannot be decoded.
var ErrFormat = dserr.ErrFormat

// ErrInvalidArgument is returned by the encoders for inconsistent input.
var ErrInvalidArgument = dserr.ErrInvalidArgument

// Decoded is the result of Decode.
type Decoded struct {
	// Version is the format version stored in the blob. It is reported but
	// not interpreted yet.
	Version uint32

	// Manifest holds one entry per example, in payload order.
	Manifest []Entry

	// Payload is the concatenated per-example data. It aliases the input
	// buffer passed to Decode.
	Payload []byte
}

// Encode writes the header, the JSON manifest and payload into a new buffer.
// payload must be exactly the concatenation of the spans described by
// manifest.
func Encode(manifest []Entry, payload []byte) ([]byte, error) {
	want := 0
	for i, e := range manifest {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("dscodec: manifest entry %d: %v: %w", i, err, ErrInvalidArgument)
		}
		n := e.ByteLen()
		if n > len(payload)-want {
			return nil, fmt.Errorf("dscodec: manifest entry %d needs %d bytes, %d left in payload: %w", i, n, len(payload)-want, ErrInvalidArgument)
		}
		want += n
	}
	if want != len(payload) {
		return nil, fmt.Errorf("dscodec: payload is %d bytes, manifest describes %d: %w", len(payload), want, ErrInvalidArgument)
	}
	if manifest == nil {
		manifest = []Entry{}
	}
	mb, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("dscodec: marshal manifest: %w", err)
	}

	buf := make([]byte, headerSize+len(mb)+len(payload))
	le := binary.LittleEndian
	n := copy(buf, Descriptor)
	le.PutUint32(buf[n:], Version)
	le.PutUint32(buf[n+4:], uint32(len(mb)))
	n = headerSize
	n += copy(buf[n:], mb)
	copy(buf[n:], payload)
	return buf, nil
}

// Decode parses a blob produced by Encode. It fails with ErrFormat when the
// descriptor does not match, the manifest is malformed, or the payload is
// shorter or longer than the manifest describes.
func Decode(buf []byte) (*Decoded, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf("dscodec: blob of %d bytes is shorter than the %d-byte header: %w", len(buf), headerSize, ErrFormat)
	}
	if string(buf[:len(Descriptor)]) != Descriptor {
		return nil, fmt.Errorf("dscodec: invalid descriptor %q: %w", buf[:len(Descriptor)], ErrFormat)
	}
	le := binary.LittleEndian
	version := le.Uint32(buf[len(Descriptor):])
	manifestLen := int(le.Uint32(buf[len(Descriptor)+4:]))
	if manifestLen > len(buf)-headerSize {
		return nil, fmt.Errorf("dscodec: manifest length %d exceeds blob: %w", manifestLen, ErrFormat)
	}

	var manifest []Entry
	if err := json.Unmarshal(buf[headerSize:headerSize+manifestLen], &manifest); err != nil {
		return nil, fmt.Errorf("dscodec: parse manifest: %v: %w", err, ErrFormat)
	}
	payload := buf[headerSize+manifestLen:]

	want := 0
	for i, e := range manifest {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("dscodec: manifest entry %d: %v: %w", i, err, ErrFormat)
		}
		n := e.ByteLen()
		if n > len(payload)-want {
			return nil, fmt.Errorf("dscodec: manifest entry %d needs %d bytes, %d left in payload: %w", i, n, len(payload)-want, ErrFormat)
		}
		want += n
	}
	if want != len(payload) {
		return nil, fmt.Errorf("dscodec: payload is %d bytes, manifest describes %d: %w", len(payload), want, ErrFormat)
	}

	return &Decoded{
		Version:  version,
		Manifest: manifest,
		Payload:  payload,
	}, nil
}

// Examples iterates over the manifest entries paired with their payload
// spans, in manifest order.
func (d *Decoded) Examples() iter.Seq2[Entry, []byte] {
	return func(yield func(Entry, []byte) bool) {
		off := 0
		for _, e := range d.Manifest {
			n := e.ByteLen()
			if !yield(e, d.Payload[off:off+n]) {
				return
			}
			off += n
		}
	}
}
