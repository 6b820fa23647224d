//go:build gocv

package cvbackend

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/kikiluvv/framescan/internal/logging"
	"github.com/kikiluvv/framescan/internal/scanner"
)

// Haar cascade parameters.
const (
	haarScaleFactor  = 1.1
	haarMinNeighbors = 4
)

// Available reports whether OpenCV support is compiled in.
func Available() bool { return true }

// Opener opens videos with cv::VideoCapture.
type Opener struct {
	logger zerolog.Logger
}

// NewOpener returns an OpenCV based opener.
func NewOpener(logger zerolog.Logger) (*Opener, error) {
	return &Opener{logger: logging.WithComponent(logger, "opencv")}, nil
}

// Open implements scanner.SourceOpener.
func (o *Opener) Open(_ context.Context, path string) (scanner.FrameSource, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, scanner.ErrUnusableSource, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%s: capture did not open: %w", path, scanner.ErrUnusableSource)
	}

	meta := scanner.VideoMeta{
		TotalFrames: int(math.Max(0, vc.Get(gocv.VideoCaptureFrameCount))),
		FPS:         vc.Get(gocv.VideoCaptureFPS),
		Width:       int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:      int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}
	o.logger.Debug().
		Str("input", path).
		Int("total_frames", meta.TotalFrames).
		Float64("fps", meta.FPS).
		Msg("opened capture")

	return &Source{vc: vc, meta: meta, frame: gocv.NewMat()}, nil
}

// Source is one open capture. A capture has a single read position, so
// reads are serialised.
type Source struct {
	mu    sync.Mutex
	vc    *gocv.VideoCapture
	meta  scanner.VideoMeta
	frame gocv.Mat
	next  int
}

// Meta implements scanner.FrameSource.
func (s *Source) Meta() scanner.VideoMeta {
	return s.meta
}

// ReadFrame implements scanner.FrameSource.
func (s *Source) ReadFrame(ctx context.Context, index int) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index != s.next {
		s.vc.Set(gocv.VideoCapturePosFrames, float64(index))
	}
	if ok := s.vc.Read(&s.frame); !ok || s.frame.Empty() {
		s.next = -1
		return nil, fmt.Errorf("frame %d: %w", index, scanner.ErrDecodeFailed)
	}
	s.next = index + 1

	img, err := s.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w: %w", index, scanner.ErrDecodeFailed, err)
	}
	return img, nil
}

// Close implements scanner.FrameSource.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame.Close()
	return s.vc.Close()
}

// FaceDetector runs a Haar cascade.
type FaceDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	minSize    int
}

// NewFaceDetector loads the cascade XML at path.
func NewFaceDetector(path string, minSize int) (*FaceDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("load cascade %s: %w", path, ErrUnavailable)
	}
	return &FaceDetector{classifier: classifier, minSize: minSize}, nil
}

// Detect implements scanner.FaceDetector.
func (d *FaceDetector) Detect(gray *image.Gray) ([]scanner.FaceRect, error) {
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(mat, haarScaleFactor, haarMinNeighbors, 0,
		image.Pt(d.minSize, d.minSize), image.Pt(0, 0))
	d.mu.Unlock()

	faces := make([]scanner.FaceRect, 0, len(rects))
	for _, r := range rects {
		faces = append(faces, scanner.FaceRect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()})
	}
	return faces, nil
}

// Close releases the classifier.
func (d *FaceDetector) Close() error {
	return d.classifier.Close()
}

// EdgeDetector runs cv::Canny.
type EdgeDetector struct {
	low, high float32
}

// NewEdgeDetector returns a Canny transform with the given thresholds.
func NewEdgeDetector(low, high float64) (*EdgeDetector, error) {
	return &EdgeDetector{low: float32(low), high: float32(high)}, nil
}

// Edges implements scanner.EdgeDetector.
func (e *EdgeDetector) Edges(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return out
	}
	defer src.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(src, &edges, e.low, e.high)

	img, err := edges.ToImage()
	if err != nil {
		return out
	}
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	return out
}
