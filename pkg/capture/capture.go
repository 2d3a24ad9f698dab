// Package capture turns recorded audio into dataset examples.
//
// It computes log mel filterbank spectrograms with the Kaldi-style front end:
//
//	SampleRate:  16000
//	WindowSize:  400 (25 ms)
//	HopSize:     160 (10 ms)
//	FFTSize:     512
//	NumMels:     40
//	LowFreq:     20
//	HighFreq:  7600
//	PreEmphasis: 0.97
//
// WAV input is mixed down to mono and resampled to SampleRate first.
package capture

import (
	"fmt"
	"io"
	"math"

	"github.com/haivivi/speechset/pkg/dataset"
	"github.com/haivivi/speechset/pkg/dserr"
)

var (
	ErrInvalidArgument = dserr.ErrInvalidArgument
	ErrFormat          = dserr.ErrFormat
)

// Config controls feature extraction.
type Config struct {
	SampleRate  int     // target sample rate in Hz
	WindowSize  int     // analysis window in samples
	HopSize     int     // frame step in samples
	FFTSize     int     // power of two, at least WindowSize
	NumMels     int     // mel bins, the spectrogram frame size
	LowFreq     float64 // lowest mel frequency in Hz
	HighFreq    float64 // highest mel frequency in Hz
	PreEmphasis float64

	// KeepRawAudio attaches the (resampled) waveform to every example.
	KeepRawAudio bool
}

// DefaultConfig returns the 16 kHz, 40-mel configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:  16000,
		WindowSize:  400,
		HopSize:     160,
		FFTSize:     512,
		NumMels:     40,
		LowFreq:     20,
		HighFreq:    7600,
		PreEmphasis: 0.97,
	}
}

func (c Config) validate() error {
	switch {
	case c.SampleRate <= 0, c.WindowSize <= 0, c.HopSize <= 0, c.NumMels <= 0:
		return fmt.Errorf("capture: sample rate, window, hop and mel count must be positive: %w", ErrInvalidArgument)
	case c.FFTSize < c.WindowSize || c.FFTSize&(c.FFTSize-1) != 0:
		return fmt.Errorf("capture: FFT size %d must be a power of two >= window size %d: %w", c.FFTSize, c.WindowSize, ErrInvalidArgument)
	case !(c.LowFreq >= 0 && c.LowFreq < c.HighFreq && c.HighFreq <= float64(c.SampleRate)/2):
		return fmt.Errorf("capture: mel range [%v, %v] Hz invalid for %d Hz audio: %w", c.LowFreq, c.HighFreq, c.SampleRate, ErrInvalidArgument)
	}
	return nil
}

// Extractor computes log mel spectrograms. It is safe for concurrent use.
type Extractor struct {
	cfg     Config
	window  []float64
	melBank [][]float64
}

// New creates an Extractor.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		cfg:     cfg,
		window:  hammingWindow(cfg.WindowSize),
		melBank: melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq),
	}, nil
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// NumFrames returns the number of spectrogram frames for n samples.
func (e *Extractor) NumFrames(n int) int {
	if n < e.cfg.WindowSize {
		return 0
	}
	return (n-e.cfg.WindowSize)/e.cfg.HopSize + 1
}

// Spectrogram computes the log mel spectrogram of pcm, which must be mono
// audio at the configured sample rate with samples in [-1, 1].
func (e *Extractor) Spectrogram(pcm []float32) (dataset.Spectrogram, error) {
	cfg := e.cfg
	numFrames := e.NumFrames(len(pcm))
	if numFrames == 0 {
		return dataset.Spectrogram{}, fmt.Errorf("capture: %d samples are shorter than one %d-sample window: %w", len(pcm), cfg.WindowSize, ErrInvalidArgument)
	}

	out := make([]float32, numFrames*cfg.NumMels)
	re := make([]float64, cfg.FFTSize)
	im := make([]float64, cfg.FFTSize)
	power := make([]float64, cfg.FFTSize/2+1)

	for t := 0; t < numFrames; t++ {
		start := t * cfg.HopSize
		for i := 0; i < cfg.WindowSize; i++ {
			s := float64(pcm[start+i])
			if i > 0 {
				s -= cfg.PreEmphasis * float64(pcm[start+i-1])
			}
			re[i] = s * e.window[i]
		}
		clear(re[cfg.WindowSize:])
		clear(im)
		fft(re, im)
		for k := range power {
			power[k] = re[k]*re[k] + im[k]*im[k]
		}

		row := out[t*cfg.NumMels : (t+1)*cfg.NumMels]
		for m, filter := range e.melBank {
			var sum float64
			for k, w := range filter {
				sum += w * power[k]
			}
			row[m] = float32(math.Log(max(sum, 1e-10)))
		}
	}
	return dataset.Spectrogram{Data: out, FrameSize: cfg.NumMels}, nil
}

// FromPCM builds an example from mono samples recorded at sampleRate.
func (e *Extractor) FromPCM(samples []float32, sampleRate int, label string) (*dataset.Example, error) {
	if label == "" {
		return nil, fmt.Errorf("capture: empty label: %w", ErrInvalidArgument)
	}
	pcm, err := Resample(samples, sampleRate, e.cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	spec, err := e.Spectrogram(pcm)
	if err != nil {
		return nil, err
	}
	ex := &dataset.Example{Label: label, Spectrogram: spec}
	if e.cfg.KeepRawAudio {
		ex.RawAudio = &dataset.RawAudio{Data: pcm, SampleRateHz: float64(e.cfg.SampleRate)}
	}
	return ex, nil
}

// FromWAV decodes a WAV stream and builds an example from it.
func (e *Extractor) FromWAV(r io.ReadSeeker, label string) (*dataset.Example, error) {
	samples, rate, err := DecodeWAV(r)
	if err != nil {
		return nil, err
	}
	return e.FromPCM(samples, rate, label)
}
