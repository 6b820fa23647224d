package scanner

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCenteredFaceRatio(t *testing.T) {
	centered := FaceRect{X: 24, Y: 16, Width: 16, Height: 16}
	corner := FaceRect{X: 0, Y: 0, Width: 8, Height: 8}

	tests := []struct {
		name  string
		faces []FaceRect
		w, h  int
		want  float64
	}{
		{"no faces scores zero", nil, 64, 48, 0},
		{"centered", []FaceRect{centered}, 64, 48, 1},
		{"corner", []FaceRect{corner}, 64, 48, 0},
		{"half", []FaceRect{centered, corner}, 64, 48, 0.5},
		// centroid (50, 80) sits exactly on the lower zone edge 0.8*100
		{"edge inclusive", []FaceRect{{X: 48, Y: 78, Width: 4, Height: 4}}, 100, 100, 1},
		{"below zone", []FaceRect{{X: 48, Y: 80, Width: 4, Height: 4}}, 100, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CenteredFaceRatio(tt.faces, tt.w, tt.h), 1e-12)
		})
	}
}

func TestOrientationScores(t *testing.T) {
	zero := Densities{}

	p, l := OrientationScores(zero, 0, 48, 64)
	assert.InDelta(t, 0.38, p, 1e-12)
	assert.InDelta(t, 0.13, l, 1e-12)

	p, l = OrientationScores(zero, 0, 64, 48)
	assert.InDelta(t, 0.0, p, 1e-12)
	assert.InDelta(t, 0.55, l, 1e-12)

	// square frames count as portrait
	p, l = OrientationScores(zero, 1, 50, 50)
	assert.InDelta(t, 0.60, p, 1e-12)
	assert.InDelta(t, 0.0, l, 1e-12)

	full := Densities{Left: 1, Right: 1, Top: 1, Bottom: 1, Center: 1}
	p, _ = OrientationScores(full, 1, 48, 64)
	assert.InDelta(t, 1.0, p, 1e-12)

	lopsided := Densities{Left: 0.4, Right: 0.0}
	_, l = OrientationScores(lopsided, 0, 64, 48)
	assert.InDelta(t, 0.42+0.27*0.2+0.18*0.4+0.13, l, 1e-12)
}

func TestRegionDensities(t *testing.T) {
	// 100x100 edge map with only the center box lit
	edges := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 18; y < 85; y++ {
		for x := 25; x < 75; x++ {
			edges.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	d := RegionDensities(edges)
	assert.InDelta(t, 1.0, d.Center, 1e-12)
	assert.InDelta(t, d.Left, d.Right, 1e-12)
	assert.InDelta(t, 25.0*67.0/5000.0, d.Left, 1e-12)
	assert.InDelta(t, (32.0*50.0)/5000.0, d.Top, 1e-12)
	assert.InDelta(t, (35.0*50.0)/5000.0, d.Bottom, 1e-12)
}

func TestRegionDensitiesDegenerate(t *testing.T) {
	d := RegionDensities(image.NewGray(image.Rect(0, 0, 1, 1)))
	assert.Equal(t, Densities{}, d)
}

func TestMotion(t *testing.T) {
	prev := image.NewGray(image.Rect(0, 0, 10, 4))
	cur := image.NewGray(image.Rect(0, 0, 10, 4))
	// light the two leftmost columns: outside the horizontal band [2,8)
	for y := 0; y < 4; y++ {
		cur.SetGray(0, y, color.Gray{Y: 255})
		cur.SetGray(1, y, color.Gray{Y: 255})
	}

	v, hz := Motion(prev, cur)
	assert.InDelta(t, 0.2, v, 1e-12)
	assert.Zero(t, hz)

	v, hz = Motion(cur, cur)
	assert.Zero(t, v)
	assert.Zero(t, hz)
}
