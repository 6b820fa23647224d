package scanner

import "math"

// Sampling ratio bounds and default.
const (
	DefaultSampleRatio = 0.1
	MinSampleRatio     = 0.01
	MaxSampleRatio     = 0.5
)

// ClampRatio maps a requested sampling ratio into [MinSampleRatio, MaxSampleRatio].
// Zero or NaN means "unset" and selects DefaultSampleRatio.
func ClampRatio(ratio float64) float64 {
	if ratio == 0 || math.IsNaN(ratio) {
		ratio = DefaultSampleRatio
	}
	return math.Max(MinSampleRatio, math.Min(MaxSampleRatio, ratio))
}

// Plan is the fixed-stride visit schedule over a video.
type Plan struct {
	TotalFrames int
	Ratio       float64
	SampleCount int
	Stride      int
}

// NewPlan computes the visit schedule for totalFrames at the given ratio.
func NewPlan(totalFrames int, ratio float64) Plan {
	ratio = ClampRatio(ratio)
	count := max(1, int(float64(totalFrames)*ratio))
	stride := max(1, totalFrames/count)
	return Plan{
		TotalFrames: totalFrames,
		Ratio:       ratio,
		SampleCount: count,
		Stride:      stride,
	}
}

// Indices returns the frame indices to visit, in increasing order.
func (p Plan) Indices() []int {
	if p.TotalFrames <= 0 || p.Stride <= 0 {
		return nil
	}
	out := make([]int, 0, p.TotalFrames/p.Stride+1)
	for i := 0; i < p.TotalFrames; i += p.Stride {
		out = append(out, i)
	}
	return out
}
