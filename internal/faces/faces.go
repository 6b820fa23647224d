// Package faces provides face detectors for the scanner.
package faces

import (
	_ "embed"
	"errors"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/framescan/internal/logging"
	"github.com/kikiluvv/framescan/internal/scanner"
	"github.com/kikiluvv/framescan/internal/vision"
)

// ErrNoCascade is returned when the cascade file cannot be loaded.
var ErrNoCascade = errors.New("faces: cascade unavailable")

// facefinder is the frontal face cascade shipped with pigo (MIT, see
// LICENSE.pigo).
//
//go:embed facefinder
var facefinder []byte

// Cascade scan parameters, matching a Haar run with scale factor 1.1.
const (
	shiftFactor  = 0.1
	scaleFactor  = 1.1
	iouThreshold = 0.2
)

// Params tune the Pigo detector.
type Params struct {
	// MinSize is the smallest face edge in source pixels.
	MinSize int
	// MaxWidth downscales wider frames before detection; 0 disables it.
	MaxWidth int
	// ScoreThreshold drops clustered detections with a lower quality.
	ScoreThreshold float64
}

// Pigo detects frontal faces with a pixel-intensity-comparison cascade.
type Pigo struct {
	classifier *pigo.Pigo
	params     Params
	logger     zerolog.Logger
}

// LoadPigo reads a packed cascade from path.
func LoadPigo(logger zerolog.Logger, path string, params Params) (*Pigo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cascade %s: %w", path, errors.Join(ErrNoCascade, err))
	}
	return NewPigo(logger, data, params)
}

// Default builds a detector on the embedded facefinder cascade.
func Default(logger zerolog.Logger, params Params) (*Pigo, error) {
	return NewPigo(logger, facefinder, params)
}

// NewPigo unpacks a cascade.
func NewPigo(logger zerolog.Logger, cascade []byte, params Params) (*Pigo, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", errors.Join(ErrNoCascade, err))
	}
	return &Pigo{
		classifier: classifier,
		params:     params,
		logger:     logging.WithComponent(logger, "faces"),
	}, nil
}

// Detect implements scanner.FaceDetector.
func (d *Pigo) Detect(gray *image.Gray) ([]scanner.FaceRect, error) {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, nil
	}

	input, scale := downscale(gray, d.params.MaxWidth)
	ib := input.Bounds()

	minSize := max(1, int(float64(d.params.MinSize)*scale))
	maxSize := max(ib.Dx(), ib.Dy())
	if minSize > maxSize {
		return nil, nil
	}

	dets := d.classifier.RunCascade(pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     maxSize,
		ShiftFactor: shiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: input.Pix,
			Rows:   ib.Dy(),
			Cols:   ib.Dx(),
			Dim:    input.Stride,
		},
	}, 0.0)
	dets = d.classifier.ClusterDetections(dets, iouThreshold)

	faces := toRects(dets, d.params.ScoreThreshold, scale, w, h)
	d.logger.Trace().Int("raw", len(dets)).Int("faces", len(faces)).Msg("face detection")
	return faces, nil
}

// downscale shrinks gray to maxWidth, returning the image and the factor
// applied to source coordinates.
func downscale(gray *image.Gray, maxWidth int) (*image.Gray, float64) {
	w := gray.Bounds().Dx()
	if maxWidth <= 0 || w <= maxWidth {
		return vision.Gray(gray), 1
	}
	small := resize.Resize(uint(maxWidth), 0, gray, resize.Bilinear)
	return vision.Gray(small), float64(maxWidth) / float64(w)
}

// toRects keeps detections at or above threshold and maps their centre and
// size back into a w x h frame.
func toRects(dets []pigo.Detection, threshold, scale float64, w, h int) []scanner.FaceRect {
	var faces []scanner.FaceRect
	for _, det := range dets {
		if float64(det.Q) < threshold {
			continue
		}
		size := float64(det.Scale) / scale
		cx := float64(det.Col) / scale
		cy := float64(det.Row) / scale

		r := image.Rect(
			int(cx-size/2), int(cy-size/2),
			int(cx+size/2), int(cy+size/2),
		).Intersect(image.Rect(0, 0, w, h))
		if r.Empty() {
			continue
		}
		faces = append(faces, scanner.FaceRect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()})
	}
	return faces
}
