package staircase

import "github.com/montanaflynn/stats"

// Estimator reduces reversal values to a threshold.
type Estimator interface {
	Estimate(values []float64) (float64, error)
}

// TrailingMean averages the last N values. N <= 0 averages all of them.
type TrailingMean struct {
	N int
}

// Estimate implements Estimator.
func (e TrailingMean) Estimate(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrInsufficientData
	}
	if e.N > 0 && len(values) > e.N {
		values = values[len(values)-e.N:]
	}
	return stats.Mean(values)
}

// MeanAll averages every value.
type MeanAll struct{}

// Estimate implements Estimator.
func (MeanAll) Estimate(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrInsufficientData
	}
	return stats.Mean(values)
}
