// Package synthetic provides deterministic in-memory video sources.
package synthetic

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sort"
	"sync"

	"github.com/kikiluvv/framescan/internal/scanner"
)

// FrameFunc renders frame index of a video.
type FrameFunc func(index int) image.Image

// Video is an in-memory FrameSource. It records the indices it was asked
// for and whether it was closed.
type Video struct {
	meta   scanner.VideoMeta
	render FrameFunc
	fail   map[int]bool

	mu      sync.Mutex
	visited []int
	closed  bool
}

// New creates a video from a render function.
func New(meta scanner.VideoMeta, render FrameFunc) *Video {
	return &Video{meta: meta, render: render, fail: make(map[int]bool)}
}

// FailAt makes ReadFrame fail for the given indices.
func (v *Video) FailAt(indices ...int) *Video {
	for _, i := range indices {
		v.fail[i] = true
	}
	return v
}

// Meta implements scanner.FrameSource.
func (v *Video) Meta() scanner.VideoMeta {
	return v.meta
}

// ReadFrame implements scanner.FrameSource.
func (v *Video) ReadFrame(ctx context.Context, index int) (image.Image, error) {
	v.mu.Lock()
	v.visited = append(v.visited, index)
	v.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 || index >= v.meta.TotalFrames {
		return nil, fmt.Errorf("frame %d out of range: %w", index, scanner.ErrDecodeFailed)
	}
	if v.fail[index] {
		return nil, fmt.Errorf("frame %d: %w", index, scanner.ErrDecodeFailed)
	}
	return v.render(index), nil
}

// Close implements scanner.FrameSource.
func (v *Video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

// Visited returns the requested indices in increasing order.
func (v *Video) Visited() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := append([]int(nil), v.visited...)
	sort.Ints(out)
	return out
}

// Closed reports whether Close was called.
func (v *Video) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Library is a SourceOpener over named in-memory videos.
type Library map[string]*Video

// Open implements scanner.SourceOpener.
func (l Library) Open(_ context.Context, path string) (scanner.FrameSource, error) {
	v, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, scanner.ErrUnusableSource)
	}
	return v, nil
}

// Solid is a static single-colour video.
func Solid(totalFrames int, fps float64, w, h int, c color.Color) *Video {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(frame, frame.Bounds(), c)
	meta := scanner.VideoMeta{TotalFrames: totalFrames, FPS: fps, Width: w, Height: h}
	return New(meta, func(int) image.Image { return frame })
}

// MovingBlock is a white square sliding horizontally over black, one pixel
// per frame, wrapping at the right edge.
func MovingBlock(totalFrames int, fps float64, w, h, size int) *Video {
	meta := scanner.VideoMeta{TotalFrames: totalFrames, FPS: fps, Width: w, Height: h}
	return New(meta, func(index int) image.Image {
		frame := image.NewRGBA(image.Rect(0, 0, w, h))
		fill(frame, frame.Bounds(), color.Black)
		x := index % max(1, w-size)
		y := (h - size) / 2
		fill(frame, image.Rect(x, y, x+size, y+size), color.White)
		return frame
	})
}

// Flashes is a black video that turns white on the listed frame indices.
// Sampling one of them produces a motion spike on it and on the next sample.
func Flashes(totalFrames int, fps float64, w, h int, flashes ...int) *Video {
	lit := make(map[int]bool, len(flashes))
	for _, f := range flashes {
		lit[f] = true
	}
	black := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(black, black.Bounds(), color.Black)
	white := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(white, white.Bounds(), color.White)

	meta := scanner.VideoMeta{TotalFrames: totalFrames, FPS: fps, Width: w, Height: h}
	return New(meta, func(index int) image.Image {
		if lit[index] {
			return white
		}
		return black
	})
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, rgba)
		}
	}
}
