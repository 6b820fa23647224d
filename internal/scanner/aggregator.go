package scanner

// Aggregator accumulates frame scores in visit order.
type Aggregator struct {
	sampled       int
	portraitSum   float64
	landscapeSum  float64
	centeredSum   float64
	horizontalSum float64

	motionValues     []float64
	motionTimestamps []float64
}

// NewAggregator returns an aggregator sized for the expected sample count.
func NewAggregator(expected int) *Aggregator {
	return &Aggregator{
		motionValues:     make([]float64, 0, expected),
		motionTimestamps: make([]float64, 0, expected),
	}
}

// Add folds one sampled frame. The first frame carries a zero motion value
// and a zero horizontal motion, which keeps both motion sums unchanged.
func (a *Aggregator) Add(s FrameScore) {
	a.sampled++
	a.portraitSum += s.Portrait
	a.landscapeSum += s.Landscape
	a.centeredSum += s.CenteredFace
	a.horizontalSum += s.HorizontalMotion

	a.motionValues = append(a.motionValues, s.MotionValue)
	a.motionTimestamps = append(a.motionTimestamps, s.TimestampSeconds)
}

// Sampled returns the number of frames folded so far.
func (a *Aggregator) Sampled() int {
	return a.sampled
}

// MotionSeries returns the motion values and their timestamps, index-aligned.
func (a *Aggregator) MotionSeries() (values, timestamps []float64) {
	return a.motionValues, a.motionTimestamps
}
