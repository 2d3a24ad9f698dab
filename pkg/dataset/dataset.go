// Package dataset manages an in-memory collection of labeled spectrogram
// examples used to train keyword-spotting models.
//
// A [Store] keys every example by a unique id and groups ids by label in
// insertion order. The whole collection serializes to a single binary blob
// (see package dscodec) with [Store.Serialize] and loads back with [Load].
//
// Store is not safe for concurrent use. Hosts that share a Store between
// goroutines must serialize access themselves; in particular nothing may
// add or remove examples while Serialize or a batch assembly pass iterates
// the store.
package dataset

import (
	"fmt"

	"github.com/haivivi/speechset/pkg/dserr"
)

// Error kinds. They are shared with the other core packages, so
// errors.Is(err, dataset.ErrInvalidArgument) also matches errors returned by
// the window and batch packages.
var (
	ErrInvalidArgument = dserr.ErrInvalidArgument
	ErrNotFound        = dserr.ErrNotFound
	ErrFormat          = dserr.ErrFormat
)

// BackgroundNoiseTag is the reserved label for background-noise examples.
// Windows are cut from them evenly instead of around a focus frame.
const BackgroundNoiseTag = "_background_noise_"

// DefaultFrameDurationMillis is the spectrogram frame duration assumed by
// DurationMillis when the caller does not supply one.
const DefaultFrameDurationMillis = 23.2

// Spectrogram is a row-major [NumFrames][FrameSize] matrix of features.
type Spectrogram struct {
	Data      []float32
	FrameSize int
}

// NumFrames returns the number of frames in s.
func (s Spectrogram) NumFrames() int {
	if s.FrameSize <= 0 {
		return 0
	}
	return len(s.Data) / s.FrameSize
}

// Frame returns the feature vector of frame t.
func (s Spectrogram) Frame(t int) []float32 {
	return s.Data[t*s.FrameSize : (t+1)*s.FrameSize]
}

// Validate checks that s holds whole frames of a positive size.
func (s Spectrogram) Validate() error {
	if s.FrameSize <= 0 {
		return fmt.Errorf("dataset: frame size must be positive, got %d: %w", s.FrameSize, ErrInvalidArgument)
	}
	if len(s.Data)%s.FrameSize != 0 {
		return fmt.Errorf("dataset: %d values do not form whole frames of size %d: %w", len(s.Data), s.FrameSize, ErrInvalidArgument)
	}
	return nil
}

// RawAudio is the waveform an example's spectrogram was computed from.
type RawAudio struct {
	Data         []float32
	SampleRateHz float64
}

// Example is one training sample. Once added to a Store it must not be
// modified.
type Example struct {
	Label       string
	Spectrogram Spectrogram

	// RawAudio is optional.
	RawAudio *RawAudio
}

// Validate checks the invariants required by Store.Add.
func (e *Example) Validate() error {
	if e == nil {
		return fmt.Errorf("dataset: nil example: %w", ErrInvalidArgument)
	}
	if e.Label == "" {
		return fmt.Errorf("dataset: example label is empty: %w", ErrInvalidArgument)
	}
	if err := e.Spectrogram.Validate(); err != nil {
		return err
	}
	if e.RawAudio != nil && !(e.RawAudio.SampleRateHz > 0) {
		return fmt.Errorf("dataset: raw audio sample rate must be positive, got %v: %w", e.RawAudio.SampleRateHz, ErrInvalidArgument)
	}
	return nil
}

// clone returns a deep copy of e.
func (e *Example) clone() *Example {
	cp := &Example{
		Label: e.Label,
		Spectrogram: Spectrogram{
			Data:      append([]float32(nil), e.Spectrogram.Data...),
			FrameSize: e.Spectrogram.FrameSize,
		},
	}
	if e.RawAudio != nil {
		cp.RawAudio = &RawAudio{
			Data:         append([]float32(nil), e.RawAudio.Data...),
			SampleRateHz: e.RawAudio.SampleRateHz,
		}
	}
	return cp
}
