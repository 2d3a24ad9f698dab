package capture

import (
	"errors"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func sine(freq float64, rate, n int, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestFFTMatchesDFT(t *testing.T) {
	const n = 16
	re := make([]float64, n)
	im := make([]float64, n)
	x := make([]complex128, n)
	for i := range re {
		re[i] = math.Sin(float64(i)) + 0.5*math.Cos(3*float64(i))
		x[i] = complex(re[i], 0)
	}
	fft(re, im)
	for k := 0; k < n; k++ {
		var want complex128
		for j := 0; j < n; j++ {
			want += x[j] * cmplx.Exp(complex(0, -2*math.Pi*float64(j*k)/n))
		}
		if math.Abs(real(want)-re[k]) > 1e-9 || math.Abs(imag(want)-im[k]) > 1e-9 {
			t.Fatalf("bin %d = (%v, %v), want %v", k, re[k], im[k], want)
		}
	}
}

func TestMelFilterBank(t *testing.T) {
	bank := melFilterBank(40, 512, 16000, 20, 7600)
	if len(bank) != 40 {
		t.Fatalf("expected 40 filters, got %d", len(bank))
	}
	for i, f := range bank {
		if len(f) != 257 {
			t.Fatalf("filter %d: %d bins", i, len(f))
		}
		peak := 0.0
		for _, v := range f {
			peak = max(peak, v)
		}
		if peak == 0 {
			t.Fatalf("filter %d is all zero", i)
		}
	}
	if mel := hzToMel(1000); math.Abs(mel-1000.45) > 1 {
		t.Fatalf("hzToMel(1000) = %v", mel)
	}
}

func TestSpectrogramShapeAndPeak(t *testing.T) {
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	pcm := sine(1000, 16000, 16000, 0.5)
	spec, err := e.Spectrogram(pcm)
	if err != nil {
		t.Fatal(err)
	}
	if spec.FrameSize != 40 {
		t.Fatalf("FrameSize = %d", spec.FrameSize)
	}
	if want := (16000-400)/160 + 1; spec.NumFrames() != want {
		t.Fatalf("NumFrames = %d, want %d", spec.NumFrames(), want)
	}

	// The strongest mel bin of a 1 kHz tone is the one whose filter is
	// centered nearest 1 kHz.
	frame := spec.Frame(spec.NumFrames() / 2)
	best := 0
	for m, v := range frame {
		if v > frame[best] {
			best = m
		}
	}
	lowMel := hzToMel(20)
	step := (hzToMel(7600) - lowMel) / 41
	center := melToHz(lowMel + float64(best+1)*step)
	if math.Abs(center-1000) > 150 {
		t.Fatalf("peak bin %d centered at %.0f Hz, want near 1000 Hz", best, center)
	}
}

func TestSpectrogramTooShort(t *testing.T) {
	e, _ := New(DefaultConfig())
	if _, err := e.Spectrogram(make([]float32, 399)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewInvalid(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.FFTSize = 500 },
		func(c *Config) { c.FFTSize = 256 },
		func(c *Config) { c.NumMels = 0 },
		func(c *Config) { c.HighFreq = 9000 },
		func(c *Config) { c.LowFreq = c.HighFreq },
	}
	for i, mod := range bad {
		cfg := DefaultConfig()
		mod(&cfg)
		if _, err := New(cfg); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}
}

func TestResample(t *testing.T) {
	in := sine(440, 8000, 8000, 0.5)
	out, err := Resample(in, 8000, 16000)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 16000 {
		t.Fatalf("len = %d, want 16000", len(out))
	}
	same, _ := Resample(in, 8000, 8000)
	if &same[0] != &in[0] {
		t.Fatal("equal rates should return the input")
	}
	if _, err := Resample(in, 0, 16000); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func writeWAV(t *testing.T, samples []int, rate, channels int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeWAVStereo(t *testing.T) {
	// Left and right cancel except on the last frame.
	samples := []int{16384, -16384, 8192, -8192, 16384, 16384}
	f, err := os.Open(writeWAV(t, samples, 16000, 2))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, rate, err := DecodeWAV(f)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 16000 || len(got) != 3 {
		t.Fatalf("rate %d, %d frames", rate, len(got))
	}
	if got[0] != 0 || got[1] != 0 || got[2] != 0.5 {
		t.Fatalf("mono mix = %v", got)
	}
}

func TestFromWAV(t *testing.T) {
	pcm := sine(600, 8000, 8000, 0.25)
	ints := make([]int, len(pcm))
	for i, v := range pcm {
		ints[i] = int(v * 32767)
	}
	f, err := os.Open(writeWAV(t, ints, 8000, 1))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	cfg.KeepRawAudio = true
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ex, err := e.FromWAV(f, "yes")
	if err != nil {
		t.Fatal(err)
	}
	if err := ex.Validate(); err != nil {
		t.Fatal(err)
	}
	if ex.Label != "yes" || ex.RawAudio == nil || ex.RawAudio.SampleRateHz != 16000 {
		t.Fatalf("example = %+v", ex)
	}
	if len(ex.RawAudio.Data) != 16000 || ex.Spectrogram.NumFrames() != e.NumFrames(16000) {
		t.Fatalf("raw %d samples, %d frames", len(ex.RawAudio.Data), ex.Spectrogram.NumFrames())
	}
}

func TestDecodeWAVInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not a wav file"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, _, err := DecodeWAV(f); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}
