package ffmpeg

import (
	"errors"
	"time"
)

// ErrFFmpegNotFound is returned by New when a binary cannot be resolved.
var ErrFFmpegNotFound = errors.New("ffmpeg: binary not found")

// Options configures an Executor.
type Options struct {
	// FFmpegPath and FFprobePath override the PATH lookup when set.
	FFmpegPath  string
	FFprobePath string
	// Threads is passed as -threads when positive.
	Threads int
}

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	Rotation   int
	VideoCodec string
	// NbFrames is the container frame count, 0 when ffprobe has none.
	NbFrames int
	HasAudio bool
}

// DisplaySize returns the decoded frame size after autorotation.
func (v *VideoInfo) DisplaySize() (int, int) {
	switch v.Rotation {
	case 90, -90, 270, -270:
		return v.Height, v.Width
	}
	return v.Width, v.Height
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args []string
	// LogHandler receives every stderr line.
	LogHandler func(line string)
}
