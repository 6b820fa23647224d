package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 30000.0 / 1001.0},
		{"25", 25},
		{"0/0", 0},
		{"", 0},
		{"abc/1", 0},
		{"1/2/3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseFrameRate(tt.in), 1e-9)
		})
	}
}

func TestParseNumbers(t *testing.T) {
	assert.Equal(t, 300, ParseInt("300"))
	assert.Equal(t, 0, ParseInt("N/A"))
	assert.InDelta(t, 10.5, ParseFloat(" 10.5 "), 1e-9)
	assert.Equal(t, 0.0, ParseFloat("N/A"))
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "1.500000", FormatSeconds(1.5))
	assert.Equal(t, "0.000000", FormatSeconds(-3))
	assert.Equal(t, "0.300000", FormatSeconds(9/30.0))

	// frame 10 at NTSC rate sits at 0.3336666...; rounding would seek past it
	assert.Equal(t, "0.333666", FormatSeconds(10*1001.0/30000))
	assert.Equal(t, "4.004000", FormatSeconds(120*1001.0/30000))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/videos/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "videos", "a.mp4"), got)

	got, err = ExpandPath("relative.mp4")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestFileKinds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.MP4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.True(t, FileExists(path))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing.mp4")))

	assert.True(t, IsVideoFile(path))
	assert.True(t, IsMP4Family(path))
	assert.False(t, IsVideoFile("notes.txt"))
	assert.False(t, IsMP4Family("clip.mkv"))
}
