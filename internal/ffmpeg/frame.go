package ffmpeg

import (
	"context"
	"fmt"
	"image"

	"github.com/kikiluvv/framescan/internal/scanner"
	"github.com/kikiluvv/framescan/pkg/util"
)

// ExtractFrame decodes the frame shown at position seconds as a w x h RGBA
// image. An empty or short read wraps scanner.ErrDecodeFailed.
func (e *Executor) ExtractFrame(ctx context.Context, input string, seconds float64, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d: %w", w, h, scanner.ErrDecodeFailed)
	}

	out, err := e.Run(ctx, RunOptions{
		Args: []string{
			"-ss", util.FormatSeconds(seconds),
			"-i", input,
			"-an", "-sn",
			"-frames:v", "1",
			"-vf", fmt.Sprintf("scale=%d:%d", w, h),
			"-f", "rawvideo",
			"-pix_fmt", "rgba",
			"pipe:1",
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("extract frame at %ss: %w: %w", util.FormatSeconds(seconds), scanner.ErrDecodeFailed, err)
	}

	want := w * h * 4
	if len(out) < want {
		return nil, fmt.Errorf("frame at %ss: got %d bytes, want %d: %w",
			util.FormatSeconds(seconds), len(out), want, scanner.ErrDecodeFailed)
	}

	return &image.RGBA{
		Pix:    out[:want],
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}, nil
}
