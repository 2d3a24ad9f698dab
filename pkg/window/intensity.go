package window

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// IntensityCurve returns one intensity value per frame: the mean of the
// frame's feature values. data is a row-major [numFrames][frameSize] matrix.
func IntensityCurve(data []float32, frameSize int) ([]float64, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("window: frame size must be positive, got %d: %w", frameSize, ErrInvalidArgument)
	}
	if len(data) == 0 || len(data)%frameSize != 0 {
		return nil, fmt.Errorf("window: %d values do not form whole frames of size %d: %w", len(data), frameSize, ErrInvalidArgument)
	}
	numFrames := len(data) / frameSize
	curve := make([]float64, numFrames)
	row := make([]float64, frameSize)
	for t := 0; t < numFrames; t++ {
		for i, v := range data[t*frameSize : (t+1)*frameSize] {
			row[i] = float64(v)
		}
		curve[t] = stat.Mean(row, nil)
	}
	return curve, nil
}

// MaxIntensityFrameIndex returns the index of the frame with the highest
// mean feature value. Ties resolve to the earliest frame.
func MaxIntensityFrameIndex(data []float32, frameSize int) (int, error) {
	curve, err := IntensityCurve(data, frameSize)
	if err != nil {
		return 0, err
	}
	return floats.MaxIdx(curve), nil
}
