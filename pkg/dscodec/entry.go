package dscodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Entry describes one serialized example.
//
// RawAudioNumSamples and RawAudioSampleRateHz are either both set or both
// nil; use HasRawAudio to test for presence.
type Entry struct {
	Label                string   `json:"label"`
	SpectrogramNumFrames int      `json:"spectrogramNumFrames"`
	SpectrogramFrameSize int      `json:"spectrogramFrameSize"`
	RawAudioNumSamples   *int     `json:"rawAudioNumSamples,omitempty"`
	RawAudioSampleRateHz *float64 `json:"rawAudioSampleRateHz,omitempty"`
}

// HasRawAudio reports whether the example carries raw audio samples.
func (e Entry) HasRawAudio() bool {
	return e.RawAudioNumSamples != nil
}

// SpectrogramByteLen is the size of the spectrogram span.
func (e Entry) SpectrogramByteLen() int {
	return e.SpectrogramNumFrames * e.SpectrogramFrameSize * 4
}

// ByteLen is the size of the example's whole payload span.
func (e Entry) ByteLen() int {
	n := e.SpectrogramByteLen()
	if e.HasRawAudio() {
		n += *e.RawAudioNumSamples * 4
	}
	return n
}

func (e Entry) validate() error {
	if e.Label == "" {
		return errors.New("empty label")
	}
	if e.SpectrogramFrameSize <= 0 {
		return fmt.Errorf("frame size %d", e.SpectrogramFrameSize)
	}
	if e.SpectrogramNumFrames < 0 {
		return fmt.Errorf("frame count %d", e.SpectrogramNumFrames)
	}
	// Spans are measured in int bytes and must not overflow.
	if e.SpectrogramNumFrames > (math.MaxInt/4)/e.SpectrogramFrameSize {
		return fmt.Errorf("spectrogram of %d x %d values is too large", e.SpectrogramNumFrames, e.SpectrogramFrameSize)
	}
	if (e.RawAudioNumSamples == nil) != (e.RawAudioSampleRateHz == nil) {
		return errors.New("raw audio sample count and rate must be set together")
	}
	if e.RawAudioNumSamples != nil && *e.RawAudioNumSamples < 0 {
		return fmt.Errorf("raw audio sample count %d", *e.RawAudioNumSamples)
	}
	if e.RawAudioNumSamples != nil && *e.RawAudioNumSamples > (math.MaxInt-e.SpectrogramByteLen())/4 {
		return fmt.Errorf("raw audio sample count %d is too large", *e.RawAudioNumSamples)
	}
	if e.RawAudioSampleRateHz != nil && !(*e.RawAudioSampleRateHz > 0) {
		return fmt.Errorf("raw audio sample rate %v", *e.RawAudioSampleRateHz)
	}
	return nil
}

// RawAudio is the optional raw waveform stored with an example.
type RawAudio struct {
	Data         []float32
	SampleRateHz float64
}

// EncodeExample builds the manifest entry and payload span for one example.
// spectrogram must hold whole frames of frameSize values.
func EncodeExample(label string, spectrogram []float32, frameSize int, raw *RawAudio) (Entry, []byte, error) {
	if frameSize <= 0 || len(spectrogram)%frameSize != 0 {
		return Entry{}, nil, fmt.Errorf("dscodec: %d values do not form whole frames of size %d: %w", len(spectrogram), frameSize, ErrInvalidArgument)
	}
	e := Entry{
		Label:                label,
		SpectrogramNumFrames: len(spectrogram) / frameSize,
		SpectrogramFrameSize: frameSize,
	}
	if raw != nil {
		n, rate := len(raw.Data), raw.SampleRateHz
		e.RawAudioNumSamples = &n
		e.RawAudioSampleRateHz = &rate
	}
	if err := e.validate(); err != nil {
		return Entry{}, nil, fmt.Errorf("dscodec: %v: %w", err, ErrInvalidArgument)
	}

	b := make([]byte, e.ByteLen())
	putFloat32s(b, spectrogram)
	if raw != nil {
		putFloat32s(b[e.SpectrogramByteLen():], raw.Data)
	}
	return e, b, nil
}

// DecodeExample splits a payload span back into the spectrogram values and,
// when the entry declares raw audio, the raw audio samples.
func DecodeExample(e Entry, b []byte) (spectrogram []float32, raw *RawAudio, err error) {
	if err := e.validate(); err != nil {
		return nil, nil, fmt.Errorf("dscodec: %v: %w", err, ErrFormat)
	}
	if len(b) != e.ByteLen() {
		return nil, nil, fmt.Errorf("dscodec: example %q span is %d bytes, want %d: %w", e.Label, len(b), e.ByteLen(), ErrFormat)
	}
	n := e.SpectrogramByteLen()
	spectrogram = BytesToFloat32s(b[:n])
	if e.HasRawAudio() {
		raw = &RawAudio{
			Data:         BytesToFloat32s(b[n:]),
			SampleRateHz: *e.RawAudioSampleRateHz,
		}
	}
	return spectrogram, raw, nil
}

// Float32sToBytes returns the little-endian IEEE 754 encoding of v.
func Float32sToBytes(v []float32) []byte {
	b := make([]byte, len(v)*4)
	putFloat32s(b, v)
	return b
}

// BytesToFloat32s decodes little-endian IEEE 754 values. Trailing bytes that
// do not form a whole value are ignored; callers pass exact spans.
func BytesToFloat32s(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func putFloat32s(b []byte, v []float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
}
