package scanner

import (
	"math"
	"sort"
)

// Peak detection constants.
const (
	peakStdFactor     = 0.75
	peakMinSpacingSec = 4.5
	maxMotionPeaks    = 6
)

// MotionStats summarises the motion series of a scan.
type MotionStats struct {
	Mean            float64
	Std             float64
	Threshold       float64
	HighMotionRatio float64
	// Peaks are timestamps in seconds, in acceptance (salience) order, unrounded.
	Peaks []float64
}

type motionSample struct {
	timestamp float64
	value     float64
}

// DetectPeaks computes the high-motion ratio and the de-duplicated motion peaks.
func DetectPeaks(values, timestamps []float64) MotionStats {
	if len(values) == 0 {
		return MotionStats{Peaks: []float64{}}
	}

	mean, std := meanStd(values)
	threshold := mean + peakStdFactor*std

	stats := MotionStats{
		Mean:            mean,
		Std:             std,
		Threshold:       threshold,
		HighMotionRatio: ratioAbove(values, threshold),
		Peaks:           []float64{},
	}
	// a flat series has nothing that stands out
	if std == 0 {
		return stats
	}

	stats.Peaks = dedupePeaks(peakCandidates(values, timestamps, threshold))
	return stats
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (float64, float64) {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / n)
}

// ratioAbove is the fraction of values strictly above threshold.
func ratioAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	above := 0
	for _, v := range values {
		if v > threshold {
			above++
		}
	}
	return float64(above) / float64(len(values))
}

// peakCandidates keeps samples at or above threshold, most salient first;
// equal values keep their temporal order.
func peakCandidates(values, timestamps []float64, threshold float64) []motionSample {
	n := min(len(values), len(timestamps))
	out := make([]motionSample, 0, n)
	for i := 0; i < n; i++ {
		if values[i] >= threshold {
			out = append(out, motionSample{timestamp: timestamps[i], value: values[i]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].value > out[j].value
	})
	return out
}

// dedupePeaks greedily accepts candidates that are not within
// peakMinSpacingSec of an accepted one, up to maxMotionPeaks.
func dedupePeaks(candidates []motionSample) []float64 {
	peaks := make([]float64, 0, maxMotionPeaks)
	for _, c := range candidates {
		tooClose := false
		for _, p := range peaks {
			if math.Abs(c.timestamp-p) < peakMinSpacingSec {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		peaks = append(peaks, c.timestamp)
		if len(peaks) >= maxMotionPeaks {
			break
		}
	}
	return peaks
}
