package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"time"

	"github.com/kikiluvv/framescan/pkg/util"
)

// ProbeVideo extracts metadata from a video file
func (e *Executor) ProbeVideo(ctx context.Context, filePath string) (*VideoInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := parseProbe(output)
	if err != nil {
		return nil, err
	}
	info.FilePath = filePath

	e.logger.Debug().
		Str("input", filePath).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Int("nb_frames", info.NbFrames).
		Int("rotation", info.Rotation).
		Dur("duration", info.Duration).
		Msg("probed video")
	return info, nil
}

// parseProbe reads the first video stream out of ffprobe JSON output.
func parseProbe(output []byte) (*VideoInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &VideoInfo{}

	if dur := util.ParseFloat(probe.Format.Duration); dur > 0 {
		info.Duration = time.Duration(dur * float64(time.Second))
	}

	foundVideo := false
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			info.NbFrames = util.ParseInt(stream.NbFrames)

			// avg_frame_rate is 0/0 for some streams; r_frame_rate is always set
			info.FPS = util.ParseFrameRate(stream.AvgFrameRate)
			if info.FPS <= 0 {
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}

			if dur := util.ParseFloat(stream.Duration); dur > 0 && info.Duration == 0 {
				info.Duration = time.Duration(dur * float64(time.Second))
			}

			info.Rotation = util.ParseInt(stream.Tags.Rotate)
			for _, sd := range stream.SideDataList {
				if sd.Rotation != 0 {
					info.Rotation = int(sd.Rotation)
				}
			}
		case "audio":
			info.HasAudio = true
		}
	}

	if !foundVideo {
		return nil, fmt.Errorf("no video stream found")
	}
	return info, nil
}

// FrameCount returns the best available frame count: the container count,
// then duration times frame rate.
func (v *VideoInfo) FrameCount() int {
	if v.NbFrames > 0 {
		return v.NbFrames
	}
	if v.FPS > 0 && v.Duration > 0 {
		return int(math.Round(v.Duration.Seconds() * v.FPS))
	}
	return 0
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
		Tags         struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideDataList []struct {
			Rotation float64 `json:"rotation"`
		} `json:"side_data_list"`
	} `json:"streams"`
}
