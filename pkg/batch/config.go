// Package batch assembles training batches from a dataset.Store.
//
// Every example is cut into fixed-length windows with package window: keyword
// examples around their peak-intensity frame, background-noise examples
// evenly. The windows are normalized, shuffled together with their class
// indices, and stacked into a Batch.
package batch

import (
	"log/slog"
	"math/rand/v2"

	"github.com/haivivi/speechset/pkg/dserr"
)

// ErrInvalidArgument is returned when a store cannot be assembled with the
// given Config.
var ErrInvalidArgument = dserr.ErrInvalidArgument

// Normalizer transforms one window. It must return a slice of the same
// length; it may reuse its argument.
type Normalizer func([]float32) []float32

// Config controls batch assembly. The zero value assembles all labels,
// derives window parameters from the store, normalizes and shuffles.
type Config struct {
	// Label restricts the batch to one label. The batch then carries no
	// class matrix.
	Label string

	// NumFrames is the window length in frames. HopFrames is the step
	// between consecutive windows. Both default from the store when every
	// example has the same frame count (that count and 1); otherwise both
	// must be set.
	NumFrames int
	HopFrames int

	DisableNormalize bool
	DisableShuffle   bool

	// AugmentByMixingNoiseRatio, when positive, appends an augmented copy
	// of every keyword window: the window plus that fraction of a randomly
	// picked background-noise window, normalized after mixing. The clean
	// windows are kept.
	AugmentByMixingNoiseRatio float64

	// Normalizer defaults to ZScore.
	Normalizer Normalizer

	// Rand drives shuffling and noise selection. Nil uses a randomly
	// seeded source.
	Rand *rand.Rand

	Logger *slog.Logger
}

func (c *Config) normalizer() Normalizer {
	if c.DisableNormalize {
		return nil
	}
	if c.Normalizer != nil {
		return c.Normalizer
	}
	return ZScore
}

func (c *Config) rand() *rand.Rand {
	if c.Rand != nil {
		return c.Rand
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
