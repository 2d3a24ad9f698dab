package batch

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/haivivi/speechset/pkg/dataset"
	"github.com/haivivi/speechset/pkg/window"
)

// peaked returns numFrames frames of frameSize values equal to base, except
// frame peak, which is base+10.
func peaked(numFrames, frameSize, peak int, base float32) dataset.Spectrogram {
	data := make([]float32, numFrames*frameSize)
	for i := range data {
		data[i] = base
		if i/frameSize == peak {
			data[i] = base + 10
		}
	}
	return dataset.Spectrogram{Data: data, FrameSize: frameSize}
}

func add(t *testing.T, s *dataset.Store, label string, sp dataset.Spectrogram) {
	t.Helper()
	if _, err := s.Add(&dataset.Example{Label: label, Spectrogram: sp}); err != nil {
		t.Fatalf("Add(%q): %v", label, err)
	}
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func twoLabelStore(t *testing.T) *dataset.Store {
	t.Helper()
	s := dataset.New()
	add(t, s, "yes", peaked(6, 2, 1, 1))
	add(t, s, "yes", peaked(6, 2, 4, 1))
	add(t, s, "no", peaked(6, 2, 3, 100))
	return s
}

func TestAssembleEmptyStore(t *testing.T) {
	if _, err := Assemble(dataset.New(), Config{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAssembleOneHot(t *testing.T) {
	s := twoLabelStore(t)
	b, err := Assemble(s, Config{NumFrames: 3, Rand: seeded()})
	if err != nil {
		t.Fatal(err)
	}

	// Expected window count, computed independently.
	want := 0
	for _, label := range s.Vocabulary() {
		entries, _ := s.Examples(label)
		for _, e := range entries {
			focus, _ := window.MaxIntensityFrameIndex(e.Example.Spectrogram.Data, 2)
			ws, _ := window.ValidWindows(6, focus, 3, 1)
			want += len(ws)
		}
	}
	if b.Len() != want {
		t.Fatalf("Len = %d, want %d", b.Len(), want)
	}
	rows, cols := b.Y.Dims()
	if rows != want || cols != 2 {
		t.Fatalf("Y dims = %dx%d, want %dx2", rows, cols, want)
	}
	for i := 0; i < rows; i++ {
		ones := 0
		for j := 0; j < cols; j++ {
			switch v := b.Y.At(i, j); v {
			case 1:
				ones++
			case 0:
			default:
				t.Fatalf("Y[%d][%d] = %v", i, j, v)
			}
		}
		if ones != 1 {
			t.Fatalf("row %d has %d ones", i, ones)
		}
		if b.Y.At(i, b.Classes[i]) != 1 {
			t.Fatalf("row %d does not match class %d", i, b.Classes[i])
		}
	}
	if got := b.X.Shape; len(got) != 3 || got[0] != want || got[1] != 3 || got[2] != 2 {
		t.Fatalf("X shape = %v", got)
	}
}

func TestAssembleShuffleKeepsPairs(t *testing.T) {
	s := twoLabelStore(t)
	b, err := Assemble(s, Config{NumFrames: 3, DisableNormalize: true, Rand: seeded()})
	if err != nil {
		t.Fatal(err)
	}
	// "no" (class 0) windows hold values >= 100, "yes" (class 1) values < 100.
	for i := 0; i < b.Len(); i++ {
		isNo := b.X.Item(i)[0] >= 100
		if isNo != (b.Classes[i] == 0) {
			t.Fatalf("row %d: class %d does not match its window", i, b.Classes[i])
		}
	}
}

func TestAssembleUnshuffledOrder(t *testing.T) {
	s := twoLabelStore(t)
	b, err := Assemble(s, Config{NumFrames: 3, DisableShuffle: true, DisableNormalize: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(b.Classes); i++ {
		if b.Classes[i] < b.Classes[i-1] {
			t.Fatalf("classes not in vocabulary order: %v", b.Classes)
		}
	}
	// Every keyword window contains the peak frame.
	for i := 0; i < b.Len(); i++ {
		item := b.X.Item(i)
		peak := false
		for _, v := range item {
			if v == 11 || v == 110 {
				peak = true
			}
		}
		if !peak {
			t.Fatalf("window %d misses the peak frame: %v", i, item)
		}
	}
}

func TestAssembleSingleLabel(t *testing.T) {
	s := twoLabelStore(t)
	b, err := Assemble(s, Config{Label: "yes", NumFrames: 6, Rand: seeded()})
	if err != nil {
		t.Fatal(err)
	}
	if b.Y != nil || b.Classes != nil {
		t.Fatal("single-label batch carries classes")
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
}

func TestAssembleDefaults(t *testing.T) {
	s := twoLabelStore(t)
	b, err := Assemble(s, Config{Rand: seeded()})
	if err != nil {
		t.Fatal(err)
	}
	if b.NumFrames != 6 || b.FrameSize != 2 || b.Len() != 3 {
		t.Fatalf("got %d windows of %dx%d", b.Len(), b.NumFrames, b.FrameSize)
	}
}

func TestAssembleNormalize(t *testing.T) {
	s := twoLabelStore(t)
	b, err := Assemble(s, Config{NumFrames: 3, Rand: seeded()})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < b.Len(); i++ {
		var sum float64
		for _, v := range b.X.Item(i) {
			sum += float64(v)
		}
		if math.Abs(sum) > 1e-4 {
			t.Fatalf("window %d not zero mean: sum %v", i, sum)
		}
	}

	calls := 0
	_, err = Assemble(s, Config{NumFrames: 3, Rand: seeded(), Normalizer: func(x []float32) []float32 {
		calls++
		return x
	}})
	if err != nil {
		t.Fatal(err)
	}
	if calls == 0 {
		t.Fatal("custom normalizer not called")
	}

	_, err = Assemble(s, Config{NumFrames: 3, Normalizer: func(x []float32) []float32 { return x[:1] }})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("short normalizer output: expected ErrInvalidArgument, got %v", err)
	}
}

func TestAssembleInvalid(t *testing.T) {
	single := dataset.New()
	add(t, single, "yes", peaked(4, 2, 0, 0))

	mixed := twoLabelStore(t)
	add(t, mixed, "no", peaked(4, 2, 0, 0))

	sizes := twoLabelStore(t)
	add(t, sizes, "no", peaked(6, 3, 0, 0))

	tests := []struct {
		name  string
		store *dataset.Store
		cfg   Config
	}{
		{"one label", single, Config{}},
		{"unknown label", twoLabelStore(t), Config{Label: "maybe"}},
		{"mixed counts without params", mixed, Config{}},
		{"mixed counts without hop", mixed, Config{NumFrames: 3}},
		{"window longer than shortest", mixed, Config{NumFrames: 5, HopFrames: 1}},
		{"frame size mismatch", sizes, Config{}},
		{"negative frames", twoLabelStore(t), Config{NumFrames: -1}},
		{"mixing without noise", twoLabelStore(t), Config{AugmentByMixingNoiseRatio: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Assemble(tt.store, tt.cfg); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}

	b, err := Assemble(mixed, Config{NumFrames: 4, HopFrames: 2, Rand: seeded()})
	if err != nil {
		t.Fatalf("explicit params: %v", err)
	}
	if b.NumFrames != 4 {
		t.Fatalf("NumFrames = %d", b.NumFrames)
	}
}

func TestAssembleNoiseMixing(t *testing.T) {
	s := dataset.New()
	add(t, s, "yes", peaked(4, 2, 1, 1))
	noise := dataset.Spectrogram{Data: []float32{2, 2, 2, 2, 2, 2, 2, 2}, FrameSize: 2}
	add(t, s, dataset.BackgroundNoiseTag, noise)

	b, err := Assemble(s, Config{
		NumFrames:                 4,
		DisableNormalize:          true,
		DisableShuffle:            true,
		AugmentByMixingNoiseRatio: 0.5,
		Rand:                      seeded(),
	})
	if err != nil {
		t.Fatal(err)
	}
	// One noise window, one clean keyword window and its mixed copy.
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	if !slices.Equal(b.Classes, []int{0, 1, 1}) {
		t.Fatalf("Classes = %v, want [0 1 1]", b.Classes)
	}
	// Vocabulary order puts the noise label first; it stays unmixed.
	if got := b.X.Item(0)[0]; got != 2 {
		t.Fatalf("noise window value = %v, want 2", got)
	}
	if got := b.X.Item(1); got[0] != 1 || got[2] != 11 {
		t.Fatalf("clean keyword window = %v", got)
	}
	if got := b.X.Item(2); got[0] != 2 || got[2] != 12 {
		t.Fatalf("mixed keyword window = %v", got)
	}

	// Mixed copies are normalized after mixing.
	b, err = Assemble(s, Config{
		NumFrames:                 4,
		DisableShuffle:            true,
		AugmentByMixingNoiseRatio: 0.5,
		Rand:                      seeded(),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := ZScore([]float32{2, 2, 12, 12, 2, 2, 2, 2})
	if got := b.X.Item(2); !slices.Equal(got, want) {
		t.Fatalf("normalized mixed window = %v, want %v", got, want)
	}

	if _, err := Assemble(s, Config{Label: "yes", AugmentByMixingNoiseRatio: 0.5}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("mixing with label: expected ErrInvalidArgument, got %v", err)
	}
}

func TestAssembleNoiseEvenWindows(t *testing.T) {
	s := dataset.New()
	add(t, s, "yes", peaked(9, 1, 4, 0))
	add(t, s, dataset.BackgroundNoiseTag, peaked(9, 1, 8, 0))

	b, err := Assemble(s, Config{Label: dataset.BackgroundNoiseTag, NumFrames: 3, HopFrames: 3, DisableNormalize: true, DisableShuffle: true})
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 3 {
		t.Fatalf("noise windows = %d, want 3", b.Len())
	}
}
