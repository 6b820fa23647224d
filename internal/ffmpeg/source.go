package ffmpeg

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/framescan/internal/mp4meta"
	"github.com/kikiluvv/framescan/internal/scanner"
	"github.com/kikiluvv/framescan/pkg/util"
)

// defaultFPS positions seeks in streams that report no frame rate.
const defaultFPS = 30.0

// ContainerReader summarises the video track of an MP4 family file.
type ContainerReader func(path string) (mp4meta.Info, error)

// Opener opens videos as scanner frame sources backed by ffmpeg.
type Opener struct {
	exec      *Executor
	logger    zerolog.Logger
	container ContainerReader
}

// NewOpener returns an opener over e. MP4 family files missing an ffprobe
// frame count or frame rate are read with mp4meta.
func NewOpener(e *Executor) *Opener {
	return &Opener{
		exec:      e,
		logger:    e.logger,
		container: mp4meta.Read,
	}
}

// Open implements scanner.SourceOpener.
func (o *Opener) Open(ctx context.Context, path string) (scanner.FrameSource, error) {
	if !util.FileExists(path) {
		return nil, fmt.Errorf("%s: not a readable file: %w", path, scanner.ErrUnusableSource)
	}

	info, err := o.exec.ProbeVideo(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, scanner.ErrUnusableSource, err)
	}

	meta := o.Meta(info)
	if !meta.Valid() {
		return nil, fmt.Errorf("%s: %dx%d with %d frames: %w",
			path, meta.Width, meta.Height, meta.TotalFrames, scanner.ErrUnusableSource)
	}

	return &Source{exec: o.exec, path: path, meta: meta}, nil
}

// Meta converts probe output into scanner metadata, resolving the frame
// count and frame rate from the container when ffprobe does not report them.
func (o *Opener) Meta(info *VideoInfo) scanner.VideoMeta {
	w, h := info.DisplaySize()
	meta := scanner.VideoMeta{
		TotalFrames: info.NbFrames,
		FPS:         info.FPS,
		Width:       w,
		Height:      h,
	}

	if (meta.TotalFrames <= 0 || meta.FPS <= 0) && o.container != nil && util.IsMP4Family(info.FilePath) {
		track, err := o.container(info.FilePath)
		if err != nil {
			o.logger.Debug().Err(err).Str("input", info.FilePath).Msg("container metadata unavailable")
		} else {
			o.logger.Debug().
				Str("input", info.FilePath).
				Uint32("track", track.TrackID).
				Int("frames", track.Frames).
				Uint32("timescale", track.Timescale).
				Bool("fragmented", track.Fragmented).
				Float64("fps", track.FPS).
				Msg("read container metadata")
			if meta.TotalFrames <= 0 {
				meta.TotalFrames = track.Frames
			}
			if meta.FPS <= 0 {
				meta.FPS = track.FPS
			}
		}
	}
	if meta.TotalFrames <= 0 {
		meta.TotalFrames = info.FrameCount()
	}
	return meta
}

// Source is one opened video. Each ReadFrame spawns its own ffmpeg process,
// so concurrent reads are safe.
type Source struct {
	exec *Executor
	path string
	meta scanner.VideoMeta
}

// Meta implements scanner.FrameSource.
func (s *Source) Meta() scanner.VideoMeta {
	return s.meta
}

// ReadFrame implements scanner.FrameSource.
func (s *Source) ReadFrame(ctx context.Context, index int) (image.Image, error) {
	if index < 0 || index >= s.meta.TotalFrames {
		return nil, fmt.Errorf("frame %d out of range: %w", index, scanner.ErrDecodeFailed)
	}
	fps := s.meta.FPS
	if fps <= 0 {
		fps = defaultFPS
	}
	return s.exec.ExtractFrame(ctx, s.path, float64(index)/math.Max(1, fps), s.meta.Width, s.meta.Height)
}

// Close implements scanner.FrameSource.
func (s *Source) Close() error {
	return nil
}
