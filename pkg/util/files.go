package util

import (
	"os"
	"path/filepath"
	"strings"
)

// videoExtensions lists the container extensions treated as video input
var videoExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

// FileExists checks if a regular file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ExpandPath expands a leading ~ and returns an absolute, cleaned path
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

// GetExtension returns the lower-cased file extension
func GetExtension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsVideoFile reports whether the path carries a known video extension
func IsVideoFile(path string) bool {
	return videoExtensions[GetExtension(path)]
}

// IsMP4Family reports whether the container is ISO BMFF (mp4, m4v, mov)
func IsMP4Family(path string) bool {
	switch GetExtension(path) {
	case ".mp4", ".m4v", ".mov":
		return true
	}
	return false
}
