// Package stats contains score calculations and result reporting.
package stats

import (
	"errors"
	"fmt"
	"math"
	"strings"

	mstats "github.com/montanaflynn/stats"
)

var (
	// ErrInvalidDuration is returned for a non-positive timed duration.
	ErrInvalidDuration = errors.New("duration must be positive")
	// ErrInvalidWordCount is returned for a non-positive word count.
	ErrInvalidWordCount = errors.New("word count must be positive")
)

const (
	// ShortSessionMillis is the Amsler duration below which reliability drops.
	ShortSessionMillis = 10000
	// MaxFixationLosses is the number of losses tolerated before reliability drops.
	MaxFixationLosses = 2

	shortSessionPenalty = 0.4
	fixationPenalty     = 0.2
)

const sparkChars = " .:-=+*#%@"

// WordsPerMinute returns round(words / minutes).
func WordsPerMinute(wordCount int, durationMs int64) (int, error) {
	if durationMs <= 0 {
		return 0, fmt.Errorf("%w: %d ms", ErrInvalidDuration, durationMs)
	}
	if wordCount <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWordCount, wordCount)
	}
	minutes := float64(durationMs) / 60000.0
	return int(math.Round(float64(wordCount) / minutes)), nil
}

// Reliability scores an Amsler session in [0, 1]. The result is rounded to
// two decimals so the penalties combine exactly.
func Reliability(durationMs int64, fixationLosses int) float64 {
	score := 1.0
	if durationMs < ShortSessionMillis {
		score -= shortSessionPenalty
	}
	if fixationLosses > MaxFixationLosses {
		score -= fixationPenalty
	}
	score = math.Round(score*100) / 100
	if score < 0 {
		return 0
	}
	return score
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	m, err := mstats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := minMax(values)
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	top := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(top)))
		b.WriteByte(sparkChars[max(0, min(idx, top))])
	}
	return b.String()
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
