//go:build !gocv

package cvbackend

import (
	"context"
	"image"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/framescan/internal/scanner"
)

// Available reports whether OpenCV support is compiled in.
func Available() bool { return false }

// Opener is unusable without the gocv build tag.
type Opener struct{}

// NewOpener always fails with ErrUnavailable.
func NewOpener(zerolog.Logger) (*Opener, error) {
	return nil, ErrUnavailable
}

// Open implements scanner.SourceOpener.
func (o *Opener) Open(context.Context, string) (scanner.FrameSource, error) {
	return nil, ErrUnavailable
}

// FaceDetector is unusable without the gocv build tag.
type FaceDetector struct{}

// NewFaceDetector always fails with ErrUnavailable.
func NewFaceDetector(string, int) (*FaceDetector, error) {
	return nil, ErrUnavailable
}

// Detect implements scanner.FaceDetector.
func (d *FaceDetector) Detect(*image.Gray) ([]scanner.FaceRect, error) {
	return nil, ErrUnavailable
}

// Close is a no-op.
func (d *FaceDetector) Close() error { return nil }

// EdgeDetector is unusable without the gocv build tag.
type EdgeDetector struct{}

// NewEdgeDetector always fails with ErrUnavailable.
func NewEdgeDetector(float64, float64) (*EdgeDetector, error) {
	return nil, ErrUnavailable
}

// Edges returns an empty map.
func (e *EdgeDetector) Edges(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	return image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
}
