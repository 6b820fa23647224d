package scanner

import "math"

// highMotionGain scales the high-motion ratio into the short-clip signal.
const highMotionGain = 1.35

// fallbackOrientation is the undecided portrait/landscape signal.
const fallbackOrientation = 0.5

// Result is the scan report. Field names are part of the output contract.
type Result struct {
	SampledFrames              int       `json:"sampledFrames"`
	SampleStride               int       `json:"sampleStride"`
	PortraitSignal             float64   `json:"portraitSignal"`
	LandscapeSignal            float64   `json:"landscapeSignal"`
	CenteredFaceVerticalSignal float64   `json:"centeredFaceVerticalSignal"`
	HorizontalMotionSignal     float64   `json:"horizontalMotionSignal"`
	HighMotionShortClipSignal  float64   `json:"highMotionShortClipSignal"`
	MotionPeaks                []float64 `json:"motionPeaks"`
}

// Fallback returns the default report used whenever a source cannot be scanned.
func Fallback() Result {
	return Result{
		PortraitSignal:  fallbackOrientation,
		LandscapeSignal: fallbackOrientation,
		MotionPeaks:     []float64{},
	}
}

// IsFallback reports whether r carries no sampled frames.
func (r Result) IsFallback() bool {
	return r.SampledFrames == 0
}

// Normalize makes a decoded Result safe to emit: peaks are never nil.
func (r Result) Normalize() Result {
	if r.MotionPeaks == nil {
		r.MotionPeaks = []float64{}
	}
	return r
}

// Build turns the aggregate of a finished pass into the final report.
func Build(agg *Aggregator, stride int) Result {
	n := agg.Sampled()
	if n <= 0 {
		return Fallback()
	}

	values, timestamps := agg.MotionSeries()
	motion := DetectPeaks(values, timestamps)

	peaks := make([]float64, len(motion.Peaks))
	for i, p := range motion.Peaks {
		peaks[i] = round(p, 2)
	}

	frames := float64(n)
	return Result{
		SampledFrames:              n,
		SampleStride:               stride,
		PortraitSignal:             round(clamp(agg.portraitSum/frames, 0, 1), 4),
		LandscapeSignal:            round(clamp(agg.landscapeSum/frames, 0, 1), 4),
		CenteredFaceVerticalSignal: round(clamp(agg.centeredSum/frames, 0, 1), 4),
		HorizontalMotionSignal:     round(clamp(agg.horizontalSum/float64(max(1, n-1)), 0, 1), 4),
		HighMotionShortClipSignal:  round(clamp(motion.HighMotionRatio*highMotionGain, 0, 1), 4),
		MotionPeaks:                peaks,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
