package faces

import (
	"image"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	pigo "github.com/esimov/pigo/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/framescan/internal/scanner"
)

func TestToRects(t *testing.T) {
	dets := []pigo.Detection{
		{Row: 50, Col: 40, Scale: 20, Q: 9},
		{Row: 10, Col: 10, Scale: 10, Q: 2},    // below threshold
		{Row: 2, Col: 2, Scale: 10, Q: 12},     // clipped at the origin
		{Row: -50, Col: -50, Scale: 10, Q: 12}, // entirely outside
	}

	got := toRects(dets, 5, 0.5, 200, 200)
	assert.Equal(t, []scanner.FaceRect{
		{X: 60, Y: 80, Width: 40, Height: 40},
		{X: 0, Y: 0, Width: 14, Height: 14},
	}, got)
}

func TestToRectsEmpty(t *testing.T) {
	assert.Empty(t, toRects(nil, 0, 1, 10, 10))
}

func TestDownscale(t *testing.T) {
	wide := image.NewGray(image.Rect(0, 0, 1280, 720))

	small, scale := downscale(wide, 640)
	assert.Equal(t, 640, small.Bounds().Dx())
	assert.Equal(t, 360, small.Bounds().Dy())
	assert.Equal(t, 0.5, scale)

	same, scale := downscale(wide, 0)
	assert.Equal(t, 1280, same.Bounds().Dx())
	assert.Equal(t, 1.0, scale)

	narrow := image.NewGray(image.Rect(0, 0, 320, 240))
	_, scale = downscale(narrow, 640)
	assert.Equal(t, 1.0, scale)
}

func TestLoadPigoMissingCascade(t *testing.T) {
	_, err := LoadPigo(zerolog.Nop(), filepath.Join(t.TempDir(), "facefinder"), Params{})
	assert.ErrorIs(t, err, ErrNoCascade)
}

func TestPigoOnBlankFrame(t *testing.T) {
	d, err := Default(zerolog.Nop(), Params{MinSize: 36, MaxWidth: 320, ScoreThreshold: 5})
	require.NoError(t, err)

	faces, err := d.Detect(image.NewGray(image.Rect(0, 0, 640, 480)))
	require.NoError(t, err)
	assert.Empty(t, faces)

	faces, err = d.Detect(image.NewGray(image.Rect(0, 0, 0, 0)))
	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestPigoFindsFace(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "face.jpg"))
	require.NoError(t, err)
	defer f.Close()

	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)

	d, err := Default(zerolog.Nop(), Params{MinSize: 20})
	require.NoError(t, err)

	faces, err := d.Detect(gray)
	require.NoError(t, err)
	require.NotEmpty(t, faces)

	for _, r := range faces {
		rect := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
		assert.True(t, rect.In(gray.Bounds()), "face %v outside frame", rect)
		assert.Positive(t, r.Width)
	}
}

func TestLoadPigoFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facefinder")
	require.NoError(t, os.WriteFile(path, facefinder, 0o644))

	d, err := LoadPigo(zerolog.Nop(), path, Params{MinSize: 36})
	require.NoError(t, err)
	assert.NotNil(t, d.classifier)
}
