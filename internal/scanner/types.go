// Package scanner samples a sparse set of frames from a video and folds them
// into orientation, face-centering and motion signals.
package scanner

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrUnusableSource is returned by openers when the input cannot be read
	// as video: missing file, unopenable stream or non-positive dimensions.
	ErrUnusableSource = errors.New("scanner: unusable source")

	// ErrDecoderUnavailable is returned when no decode backend can be used.
	ErrDecoderUnavailable = errors.New("scanner: decoder unavailable")

	// ErrDecodeFailed marks a single frame that could not be decoded.
	ErrDecodeFailed = errors.New("scanner: frame decode failed")
)

// VideoMeta describes a source as reported once at open time.
type VideoMeta struct {
	TotalFrames int     `json:"totalFrames"`
	FPS         float64 `json:"fps"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// Valid reports whether the source can be scanned at all.
func (m VideoMeta) Valid() bool {
	return m.TotalFrames > 0 && m.Width > 0 && m.Height > 0
}

// FaceRect is a detected face in frame pixel coordinates.
type FaceRect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center returns the rectangle centroid.
func (r FaceRect) Center() (float64, float64) {
	return float64(r.X) + float64(r.Width)/2.0, float64(r.Y) + float64(r.Height)/2.0
}

// FrameSource decodes frames of one opened video. ReadFrame must be safe
// for concurrent use when the scanner runs with more than one worker.
type FrameSource interface {
	Meta() VideoMeta
	ReadFrame(ctx context.Context, index int) (image.Image, error)
	Close() error
}

// SourceOpener opens a video for scanning.
type SourceOpener interface {
	Open(ctx context.Context, path string) (FrameSource, error)
}

// OpenerFunc adapts a function to SourceOpener.
type OpenerFunc func(ctx context.Context, path string) (FrameSource, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, path string) (FrameSource, error) {
	return f(ctx, path)
}

// UnavailableOpener returns an opener that always fails with err wrapped in
// ErrDecoderUnavailable. It stands in when no decode backend could start.
func UnavailableOpener(err error) SourceOpener {
	return OpenerFunc(func(context.Context, string) (FrameSource, error) {
		if err == nil {
			return nil, ErrDecoderUnavailable
		}
		return nil, errors.Join(ErrDecoderUnavailable, err)
	})
}

// FaceDetector finds face regions in a grayscale frame.
type FaceDetector interface {
	Detect(gray *image.Gray) ([]FaceRect, error)
}

// EdgeDetector produces a binary (0/255) edge map of a grayscale frame.
type EdgeDetector interface {
	Edges(gray *image.Gray) *image.Gray
}

// NoFaces is a FaceDetector that never finds anything.
type NoFaces struct{}

// Detect returns no faces.
func (NoFaces) Detect(*image.Gray) ([]FaceRect, error) {
	return nil, nil
}

// FrameScore holds the per-frame scores folded into the aggregate.
type FrameScore struct {
	Portrait         float64
	Landscape        float64
	CenteredFace     float64
	HorizontalMotion float64
	MotionValue      float64
	TimestampSeconds float64
}
