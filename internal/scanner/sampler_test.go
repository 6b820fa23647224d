package scanner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampRatio(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, DefaultSampleRatio},
		{math.NaN(), DefaultSampleRatio},
		{0.1, 0.1},
		{0.001, MinSampleRatio},
		{-2, MinSampleRatio},
		{0.9, MaxSampleRatio},
		{0.5, 0.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampRatio(tt.in), "ratio %v", tt.in)
	}
}

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		ratio       float64
		wantCount   int
		wantStride  int
		wantIndices int
	}{
		{"300 frames at 10%", 300, 0.1, 30, 10, 30},
		{"100 frames at 10%", 100, 0.1, 10, 10, 10},
		{"tiny clip", 5, 0.1, 1, 5, 1},
		{"single frame", 1, 0.5, 1, 1, 1},
		{"ratio clamped high", 1000, 0.9, 500, 2, 500},
		{"ratio clamped low", 1000, 0.001, 10, 100, 10},
		{"default ratio", 300, 0, 30, 10, 30},
		{"uneven stride", 7, 0.5, 3, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlan(tt.total, tt.ratio)
			assert.Equal(t, tt.wantCount, p.SampleCount)
			assert.Equal(t, tt.wantStride, p.Stride)
			assert.Len(t, p.Indices(), tt.wantIndices)
		})
	}
}

func TestPlanIndices300(t *testing.T) {
	p := NewPlan(300, 0.1)
	want := make([]int, 0, 30)
	for i := 0; i < 300; i += 10 {
		want = append(want, i)
	}
	assert.Equal(t, want, p.Indices())
}

func TestPlanBounds(t *testing.T) {
	ratios := []float64{0.01, 0.033, 0.1, 0.25, 0.37, 0.5}
	for total := 1; total <= 600; total++ {
		for _, r := range ratios {
			p := NewPlan(total, r)
			require.GreaterOrEqual(t, p.SampleCount, 1)
			require.GreaterOrEqual(t, p.Stride, 1)

			idx := p.Indices()
			require.LessOrEqual(t, len(idx), total/p.Stride+1, "total=%d ratio=%v", total, r)
			require.NotEmpty(t, idx)
			require.Equal(t, 0, idx[0])
			for i := 1; i < len(idx); i++ {
				require.Equal(t, p.Stride, idx[i]-idx[i-1])
			}
			require.Less(t, idx[len(idx)-1], total)
		}
	}
}

func TestPlanEmpty(t *testing.T) {
	assert.Empty(t, Plan{}.Indices())
}
