package alerting

import (
	"math"
)

// Detector scores metric values against a learned baseline. Implementations
// are not safe for concurrent use; the engine serializes calls per rule.
type Detector interface {
	// Observe reports whether the value is anomalous relative to the
	// baseline built from previously observed values, then folds the value
	// into the baseline.
	Observe(value float64) bool
}

// ZScoreDetector flags values deviating more than sigma standard deviations
// from the rolling mean of a sliding window. It stays silent until the
// window holds enough samples for the baseline to mean anything.
type ZScoreDetector struct {
	window     []float64
	windowSize int
	sigma      float64
	minSamples int
}

// NewZScoreDetector creates a detector with the given sliding window size
// and sigma threshold.
func NewZScoreDetector(windowSize int, sigma float64) *ZScoreDetector {
	if windowSize < 2 {
		windowSize = 2
	}
	minSamples := 5
	if minSamples > windowSize {
		minSamples = windowSize
	}
	return &ZScoreDetector{
		window:     make([]float64, 0, windowSize),
		windowSize: windowSize,
		sigma:      sigma,
		minSamples: minSamples,
	}
}

// Observe implements Detector.
func (d *ZScoreDetector) Observe(value float64) bool {
	anomalous := false
	if len(d.window) >= d.minSamples {
		mean, stddev := meanStddev(d.window)
		if stddev == 0 {
			anomalous = value != mean
		} else {
			anomalous = math.Abs(value-mean) > d.sigma*stddev
		}
	}

	d.window = append(d.window, value)
	if len(d.window) > d.windowSize {
		d.window = d.window[1:]
	}
	return anomalous
}

func meanStddev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}
