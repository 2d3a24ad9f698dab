package batch

import (
	"fmt"
	"math"

	"github.com/haivivi/speechset/pkg/dataset"
)

// AssembleSplit assembles a multi-label batch and splits its windows into a
// training and a validation batch. Each class contributes about
// validationSplit of its windows to the validation side, and at least one
// window to each side when it has two or more.
func AssembleSplit(store *dataset.Store, cfg Config, validationSplit float64) (train, val *Batch, err error) {
	if !(validationSplit > 0 && validationSplit < 1) {
		return nil, nil, fmt.Errorf("batch: validation split must be in (0, 1), got %v: %w", validationSplit, ErrInvalidArgument)
	}
	if cfg.Label != "" {
		return nil, nil, fmt.Errorf("batch: split needs all labels, got label %q: %w", cfg.Label, ErrInvalidArgument)
	}
	p, err := newPlan(store, cfg)
	if err != nil {
		return nil, nil, err
	}
	windows, classes, err := p.collect(store)
	if err != nil {
		return nil, nil, err
	}

	byClass := make([][]int, len(p.vocabulary))
	for i, c := range classes {
		byClass[c] = append(byClass[c], i)
	}
	var trainIdx, valIdx []int
	for _, idx := range byClass {
		if p.shuffle {
			p.rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		}
		n := len(idx)
		k := int(math.Round(validationSplit * float64(n)))
		if n >= 2 {
			k = min(max(k, 1), n-1)
		}
		trainIdx = append(trainIdx, idx[:n-k]...)
		valIdx = append(valIdx, idx[n-k:]...)
	}
	if len(trainIdx) == 0 || len(valIdx) == 0 {
		return nil, nil, fmt.Errorf("batch: %d windows cannot be split %v: %w", len(windows), validationSplit, ErrInvalidArgument)
	}

	side := func(idx []int) (*Batch, error) {
		ws := make([][]float32, len(idx))
		cs := make([]int, len(idx))
		for i, j := range idx {
			ws[i], cs[i] = windows[j], classes[j]
		}
		if p.shuffle {
			ShuffleTogether(p.rng, ws, cs)
		}
		return p.build(ws, cs)
	}
	if train, err = side(trainIdx); err != nil {
		return nil, nil, err
	}
	if val, err = side(valIdx); err != nil {
		return nil, nil, err
	}
	p.logger.Debug("batch: split", "train", train.Len(), "validation", val.Len())
	return train, val, nil
}
