package batch

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Tensor is a dense row-major float32 array.
type Tensor struct {
	Data  []float32
	Shape []int
}

// Item returns the i-th sub-array along the first axis.
func (t Tensor) Item(i int) []float32 {
	n := 1
	for _, d := range t.Shape[1:] {
		n *= d
	}
	return t.Data[i*n : (i+1)*n]
}

// Stack copies windows into one tensor of shape
// [len(windows), numFrames, frameSize].
func Stack(windows [][]float32, numFrames, frameSize int) (Tensor, error) {
	size := numFrames * frameSize
	data := make([]float32, 0, len(windows)*size)
	for i, w := range windows {
		if len(w) != size {
			return Tensor{}, fmt.Errorf("batch: window %d has %d values, want %d: %w", i, len(w), size, ErrInvalidArgument)
		}
		data = append(data, w...)
	}
	return Tensor{Data: data, Shape: []int{len(windows), numFrames, frameSize}}, nil
}

// OneHot returns a len(classes) x numClasses matrix with a single 1 per row
// at the column given by the class index.
func OneHot(classes []int, numClasses int) (*mat.Dense, error) {
	if len(classes) == 0 || numClasses <= 0 {
		return nil, fmt.Errorf("batch: one-hot of %d classes over %d rows: %w", numClasses, len(classes), ErrInvalidArgument)
	}
	m := mat.NewDense(len(classes), numClasses, nil)
	for i, c := range classes {
		if c < 0 || c >= numClasses {
			return nil, fmt.Errorf("batch: class index %d out of range [0, %d): %w", c, numClasses, ErrInvalidArgument)
		}
		m.Set(i, c, 1)
	}
	return m, nil
}

// ShuffleTogether applies one uniform random permutation to windows and,
// when non-nil, classes.
func ShuffleTogether(r *rand.Rand, windows [][]float32, classes []int) {
	r.Shuffle(len(windows), func(i, j int) {
		windows[i], windows[j] = windows[j], windows[i]
		if classes != nil {
			classes[i], classes[j] = classes[j], classes[i]
		}
	})
}

// ZScore normalizes x in place to zero mean and unit population standard
// deviation. A constant x becomes all zeros.
func ZScore(x []float32) []float32 {
	if len(x) == 0 {
		return x
	}
	f := make([]float64, len(x))
	for i, v := range x {
		f[i] = float64(v)
	}
	mean, std := stat.PopMeanStdDev(f, nil)
	if std == 0 {
		std = 1
	}
	for i, v := range f {
		x[i] = float32((v - mean) / std)
	}
	return x
}
