package batch

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/haivivi/speechset/pkg/dataset"
	"github.com/haivivi/speechset/pkg/window"
)

// Batch is an assembled training batch.
type Batch struct {
	// X has shape [count, NumFrames, FrameSize].
	X Tensor

	// Y is the count x len(Vocabulary) one-hot class matrix, row-aligned
	// with X. It is nil for single-label batches.
	Y *mat.Dense

	// Classes holds the class index of every row of X, or nil for
	// single-label batches.
	Classes []int

	Vocabulary []string
	NumFrames  int
	FrameSize  int
}

// Len returns the number of windows in b.
func (b *Batch) Len() int {
	if len(b.X.Shape) == 0 {
		return 0
	}
	return b.X.Shape[0]
}

// Assemble cuts every selected example of store into windows and returns
// them as one batch.
func Assemble(store *dataset.Store, cfg Config) (*Batch, error) {
	p, err := newPlan(store, cfg)
	if err != nil {
		return nil, err
	}
	windows, classes, err := p.collect(store)
	if err != nil {
		return nil, err
	}
	if p.shuffle {
		ShuffleTogether(p.rng, windows, classes)
	}
	return p.build(windows, classes)
}

type plan struct {
	labels     []string
	vocabulary []string
	single     bool
	numFrames  int
	hop        int
	frameSize  int
	normalize  Normalizer
	shuffle    bool
	mixRatio   float64
	noise      [][]float32
	rng        *rand.Rand
	logger     *slog.Logger
}

func newPlan(store *dataset.Store, cfg Config) (*plan, error) {
	if store == nil || store.IsEmpty() {
		return nil, fmt.Errorf("batch: store is empty: %w", ErrInvalidArgument)
	}
	p := &plan{
		vocabulary: store.Vocabulary(),
		single:     cfg.Label != "",
		normalize:  cfg.normalizer(),
		shuffle:    !cfg.DisableShuffle,
		mixRatio:   cfg.AugmentByMixingNoiseRatio,
		rng:        cfg.rand(),
		logger:     cfg.logger(),
	}
	if p.single {
		if !slices.Contains(p.vocabulary, cfg.Label) {
			return nil, fmt.Errorf("batch: label %q is not in the vocabulary: %w", cfg.Label, ErrInvalidArgument)
		}
		p.labels = []string{cfg.Label}
	} else {
		if len(p.vocabulary) < 2 {
			return nil, fmt.Errorf("batch: one-hot classes need at least 2 labels, have %d: %w", len(p.vocabulary), ErrInvalidArgument)
		}
		p.labels = p.vocabulary
	}

	if err := p.resolveFrames(store, cfg); err != nil {
		return nil, err
	}
	if err := p.resolveFrameSize(store); err != nil {
		return nil, err
	}
	if err := p.resolveNoise(store, cfg); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *plan) resolveFrames(store *dataset.Store, cfg Config) error {
	if cfg.NumFrames < 0 || cfg.HopFrames < 0 {
		return fmt.Errorf("batch: negative window parameters (%d frames, hop %d): %w", cfg.NumFrames, cfg.HopFrames, ErrInvalidArgument)
	}
	counts := store.UniqueFrameCounts()
	p.numFrames, p.hop = cfg.NumFrames, cfg.HopFrames
	if len(counts) == 1 {
		if p.numFrames == 0 {
			p.numFrames = counts[0]
		}
		if p.hop == 0 {
			p.hop = 1
		}
	} else if p.numFrames == 0 || p.hop == 0 {
		return fmt.Errorf("batch: examples have %d different frame counts; set NumFrames and HopFrames: %w", len(counts), ErrInvalidArgument)
	}
	if p.numFrames > counts[0] {
		return fmt.Errorf("batch: %d frames per window exceed the shortest example (%d frames): %w", p.numFrames, counts[0], ErrInvalidArgument)
	}
	return nil
}

func (p *plan) resolveFrameSize(store *dataset.Store) error {
	labels := p.labels
	if p.mixRatio > 0 {
		labels = p.vocabulary
	}
	for _, label := range labels {
		entries, err := store.Examples(label)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fs := e.Example.Spectrogram.FrameSize
			if p.frameSize == 0 {
				p.frameSize = fs
			} else if fs != p.frameSize {
				return fmt.Errorf("batch: example %q has frame size %d, want %d: %w", e.ID, fs, p.frameSize, ErrInvalidArgument)
			}
		}
	}
	return nil
}

func (p *plan) resolveNoise(store *dataset.Store, cfg Config) error {
	r := cfg.AugmentByMixingNoiseRatio
	if r == 0 {
		return nil
	}
	if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return fmt.Errorf("batch: noise mixing ratio must be a positive number, got %v: %w", r, ErrInvalidArgument)
	}
	if p.single {
		return fmt.Errorf("batch: noise mixing cannot be combined with a single label: %w", ErrInvalidArgument)
	}
	entries, err := store.Examples(dataset.BackgroundNoiseTag)
	if err != nil {
		return fmt.Errorf("batch: noise mixing needs %s examples: %w", dataset.BackgroundNoiseTag, ErrInvalidArgument)
	}
	for _, e := range entries {
		ws, err := p.windows(e.Example, window.NoFocus)
		if err != nil {
			return err
		}
		p.noise = append(p.noise, ws...)
	}
	return nil
}

// windows cuts ex into raw, unnormalized windows.
func (p *plan) windows(ex *dataset.Example, focus int) ([][]float32, error) {
	var (
		spans []window.Window
		err   error
	)
	if focus == window.NoFocus {
		spans, err = window.ValidWindows(ex.Spectrogram.NumFrames(), window.NoFocus, p.numFrames, p.hop)
	} else {
		spans, err = window.ValidWindowsFocused(ex.Spectrogram.NumFrames(), focus, p.numFrames, p.hop)
	}
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(spans))
	fs := ex.Spectrogram.FrameSize
	for i, w := range spans {
		out[i] = slices.Clone(ex.Spectrogram.Data[w.Begin*fs : w.End*fs])
	}
	return out, nil
}

// collect returns the windows of every selected example in vocabulary and
// insertion order, with their class indices (nil for single-label plans).
// With noise mixing, every keyword window is followed by a mixed copy.
func (p *plan) collect(store *dataset.Store) ([][]float32, []int, error) {
	var (
		windows [][]float32
		classes []int
	)
	emit := func(w []float32, class int) error {
		if p.normalize != nil {
			if w = p.normalize(w); len(w) != p.numFrames*p.frameSize {
				return fmt.Errorf("batch: normalizer returned %d values, want %d: %w", len(w), p.numFrames*p.frameSize, ErrInvalidArgument)
			}
		}
		windows = append(windows, w)
		if !p.single {
			classes = append(classes, class)
		}
		return nil
	}
	for _, label := range p.labels {
		class := slices.Index(p.vocabulary, label)
		entries, err := store.Examples(label)
		if err != nil {
			return nil, nil, err
		}
		isNoise := label == dataset.BackgroundNoiseTag
		n := 0
		for _, e := range entries {
			focus := window.NoFocus
			if !isNoise {
				focus, err = window.MaxIntensityFrameIndex(e.Example.Spectrogram.Data, e.Example.Spectrogram.FrameSize)
				if err != nil {
					return nil, nil, fmt.Errorf("batch: example %q: %w", e.ID, err)
				}
			}
			ws, err := p.windows(e.Example, focus)
			if err != nil {
				return nil, nil, fmt.Errorf("batch: example %q: %w", e.ID, err)
			}
			for _, w := range ws {
				var mixed []float32
				if !isNoise && len(p.noise) > 0 {
					mixed = slices.Clone(w)
					mixNoise(mixed, p.noise[p.rng.IntN(len(p.noise))], p.mixRatio)
				}
				if err := emit(w, class); err != nil {
					return nil, nil, err
				}
				if mixed != nil {
					if err := emit(mixed, class); err != nil {
						return nil, nil, err
					}
					n++
				}
			}
			n += len(ws)
		}
		p.logger.Debug("batch: windows extracted", "label", label, "examples", len(entries), "windows", n)
	}
	return windows, classes, nil
}

func mixNoise(dst, noise []float32, ratio float64) {
	r := float32(ratio)
	for i := range dst {
		dst[i] += r * noise[i]
	}
}

func (p *plan) build(windows [][]float32, classes []int) (*Batch, error) {
	x, err := Stack(windows, p.numFrames, p.frameSize)
	if err != nil {
		return nil, err
	}
	b := &Batch{
		X:          x,
		Vocabulary: p.vocabulary,
		NumFrames:  p.numFrames,
		FrameSize:  p.frameSize,
	}
	if !p.single {
		if b.Y, err = OneHot(classes, len(p.vocabulary)); err != nil {
			return nil, err
		}
		b.Classes = classes
	}
	return b, nil
}
