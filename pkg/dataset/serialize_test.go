package dataset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"maps"
	"math"
	"slices"
	"testing"

	"github.com/haivivi/speechset/pkg/dscodec"
)

func ramp(n int, start float32) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = start + float32(i)*0.125
	}
	return v
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	mustAdd(t, s, &Example{Label: "yes", Spectrogram: Spectrogram{Data: ramp(12, 0), FrameSize: 4}})
	mustAdd(t, s, &Example{Label: BackgroundNoiseTag, Spectrogram: Spectrogram{Data: ramp(20, -3), FrameSize: 4}})
	mustAdd(t, s, &Example{
		Label:       "no",
		Spectrogram: Spectrogram{Data: ramp(8, 7), FrameSize: 4},
		RawAudio:    &RawAudio{Data: []float32{0.1, float32(math.NaN()), -0.3}, SampleRateHz: 44100},
	})
	mustAdd(t, s, &Example{Label: "yes", Spectrogram: Spectrogram{Data: ramp(12, 100), FrameSize: 4}})
	return s
}

func TestSerializeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	blob, err := s.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(blob)
	if err != nil {
		t.Fatal(err)
	}

	if !maps.Equal(loaded.ExampleCounts(), s.ExampleCounts()) {
		t.Fatalf("counts = %v, want %v", loaded.ExampleCounts(), s.ExampleCounts())
	}
	if !slices.Equal(loaded.Vocabulary(), s.Vocabulary()) {
		t.Fatalf("vocabulary = %v, want %v", loaded.Vocabulary(), s.Vocabulary())
	}
	for _, label := range s.Vocabulary() {
		want, _ := s.Examples(label)
		got, err := loaded.Examples(label)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(want) {
			t.Fatalf("%s: %d examples, want %d", label, len(got), len(want))
		}
		for i := range want {
			assertSameExample(t, got[i].Example, want[i].Example)
		}
	}

	// Re-serializing the reloaded store reproduces the blob.
	again, err := loaded.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again, blob) {
		t.Fatal("re-serialized blob differs")
	}
}

func TestSerializeSubset(t *testing.T) {
	s := newTestStore(t)
	blob, err := s.Serialize("yes", "no")
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(blob)
	if err != nil {
		t.Fatal(err)
	}
	if got := loaded.Vocabulary(); !slices.Equal(got, []string{"no", "yes"}) {
		t.Fatalf("Vocabulary = %v", got)
	}
	if loaded.Size() != 3 {
		t.Fatalf("Size = %d, want 3", loaded.Size())
	}

	if _, err := s.Serialize("maybe"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unknown label: expected ErrInvalidArgument, got %v", err)
	}
}

func TestSerializeEmpty(t *testing.T) {
	if _, err := New().Serialize(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestLoadWrongDescriptor(t *testing.T) {
	blob, err := newTestStore(t).Serialize()
	if err != nil {
		t.Fatal(err)
	}
	blob[0] = 'X'
	if _, err := Load(blob); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestLoadOversizedManifest(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		payload  int
	}{
		{"negative span", `[{"label":"a","spectrogramNumFrames":4611686018427387903,"spectrogramFrameSize":1},` +
			`{"label":"b","spectrogramNumFrames":2,"spectrogramFrameSize":1}]`, 4},
		{"zero span", `[{"label":"a","spectrogramNumFrames":4611686018427387904,"spectrogramFrameSize":4}]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := append([]byte(dscodec.Descriptor), 1, 0, 0, 0)
			blob = binary.LittleEndian.AppendUint32(blob, uint32(len(tt.manifest)))
			blob = append(blob, tt.manifest...)
			blob = append(blob, make([]byte, tt.payload)...)
			if _, err := Load(blob); !errors.Is(err, ErrFormat) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func assertSameExample(t *testing.T, got, want *Example) {
	t.Helper()
	if got.Label != want.Label {
		t.Fatalf("label = %q, want %q", got.Label, want.Label)
	}
	if got.Spectrogram.FrameSize != want.Spectrogram.FrameSize {
		t.Fatalf("frame size = %d, want %d", got.Spectrogram.FrameSize, want.Spectrogram.FrameSize)
	}
	if !bitEqual(got.Spectrogram.Data, want.Spectrogram.Data) {
		t.Fatalf("%s: spectrogram differs", got.Label)
	}
	if (got.RawAudio == nil) != (want.RawAudio == nil) {
		t.Fatalf("%s: raw audio presence differs", got.Label)
	}
	if want.RawAudio != nil {
		if got.RawAudio.SampleRateHz != want.RawAudio.SampleRateHz || !bitEqual(got.RawAudio.Data, want.RawAudio.Data) {
			t.Fatalf("%s: raw audio differs", got.Label)
		}
	}
}

func bitEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}
