package util

import (
	"math"
	"strconv"
	"strings"
)

// FormatSeconds formats a position in seconds for ffmpeg -ss, truncated to
// the microsecond so it never lands past the frame it names.
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	// the small bias keeps exact decimals like 0.3 from flooring a step down
	us := math.Floor(seconds*1e6 + 1e-6)
	return strconv.FormatFloat(us/1e6, 'f', 6, 64)
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1", "30000/1001", "25")
func ParseFrameRate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parts := strings.Split(s, "/")
	if len(parts) == 1 {
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0
		}
		return v
	}
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// ParseFloat parses an ffprobe numeric string, returning 0 on "N/A" or garbage
func ParseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseInt parses an ffprobe integer string, returning 0 on "N/A" or garbage
func ParseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
