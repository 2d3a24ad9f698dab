package capture

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"
	resampling "github.com/tphakala/go-audio-resampling"
)

// DecodeWAV reads a PCM WAV stream and returns its samples mixed down to
// mono and scaled to [-1, 1], together with the sample rate.
func DecodeWAV(r io.ReadSeeker) ([]float32, int, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, 0, fmt.Errorf("capture: not a PCM WAV file: %w", ErrFormat)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("capture: decode wav: %v: %w", err, ErrFormat)
	}
	channels := int(d.NumChans)
	depth := int(d.BitDepth)
	if channels <= 0 || depth <= 0 || depth > 32 {
		return nil, 0, fmt.Errorf("capture: unsupported wav layout (%d channels, %d bits): %w", channels, depth, ErrFormat)
	}

	scale := float32(int64(1) << (depth - 1))
	var offset float32
	if depth == 8 {
		// 8-bit WAV samples are unsigned.
		offset = 128
	}
	frames := len(buf.Data) / channels
	out := make([]float32, frames)
	for i := range out {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += (float32(buf.Data[i*channels+c]) - offset) / scale
		}
		out[i] = sum / float32(channels)
	}
	return out, int(d.SampleRate), nil
}

// Resample converts mono samples from one rate to another. Equal rates
// return samples unchanged.
func Resample(samples []float32, from, to int) ([]float32, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("capture: sample rates must be positive, got %d -> %d: %w", from, to, ErrInvalidArgument)
	}
	if from == to || len(samples) == 0 {
		return samples, nil
	}
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("capture: create resampler: %w", err)
	}

	// Trailing silence pushes the filter delay out of the resampler.
	in := make([]float64, len(samples)+from/10)
	for i, s := range samples {
		in[i] = float64(s)
	}
	res, err := rs.Process(in)
	if err != nil {
		return nil, fmt.Errorf("capture: resample: %w", err)
	}

	want := int(int64(len(samples)) * int64(to) / int64(from))
	out := make([]float32, want)
	for i := range out {
		if i < len(res) {
			out[i] = float32(res[i])
		}
	}
	return out, nil
}
