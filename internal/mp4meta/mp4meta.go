// Package mp4meta reads exact video sample counts from ISO-BMFF containers.
package mp4meta

import (
	"errors"
	"fmt"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// ErrNoVideoTrack is returned when the container has no "vide" track.
var ErrNoVideoTrack = errors.New("mp4meta: no video track")

// Info is the video track summary of an MP4 file.
type Info struct {
	TrackID    uint32
	Frames     int
	Timescale  uint32
	Fragmented bool
	// FPS is derived from the sample table and is 0 when it cannot be.
	FPS float64
}

// Read parses the boxes of path without loading media data and counts the
// samples of its first video track.
func Read(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	mp4File, err := mp4.DecodeFile(f, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}
	return FromFile(mp4File)
}

// FromFile summarises an already decoded file.
func FromFile(mp4File *mp4.File) (Info, error) {
	moov := mp4File.Moov
	if moov == nil && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return Info{}, fmt.Errorf("no moov box: %w", ErrNoVideoTrack)
	}

	trak := videoTrack(moov)
	if trak == nil {
		return Info{}, ErrNoVideoTrack
	}

	info := Info{
		TrackID:    trak.Tkhd.TrackID,
		Fragmented: mp4File.IsFragmented(),
	}
	if trak.Mdia.Mdhd != nil {
		info.Timescale = trak.Mdia.Mdhd.Timescale
	}

	var ticks uint64
	if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil {
		frames, dur := sttsTotals(trak.Mdia.Minf.Stbl.Stts)
		info.Frames += frames
		ticks += dur
	}

	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd == nil || traf.Tfhd.TrackID != info.TrackID {
					continue
				}
				for _, trun := range traf.Truns {
					info.Frames += int(trun.SampleCount())
				}
			}
		}
	}

	if !info.Fragmented && ticks > 0 && info.Timescale > 0 {
		info.FPS = float64(info.Frames) * float64(info.Timescale) / float64(ticks)
	}
	return info, nil
}

func videoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

// sttsTotals sums the run-length encoded decoding time table.
func sttsTotals(stts *mp4.SttsBox) (frames int, ticks uint64) {
	if stts == nil {
		return 0, 0
	}
	for i, count := range stts.SampleCount {
		frames += int(count)
		if i < len(stts.SampleTimeDelta) {
			ticks += uint64(count) * uint64(stts.SampleTimeDelta[i])
		}
	}
	return frames, ticks
}
