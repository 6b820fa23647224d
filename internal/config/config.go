package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Decode and face backends.
const (
	BackendFFmpeg = "ffmpeg"
	BackendOpenCV = "opencv"
	BackendPigo   = "pigo"
	BackendNone   = "none"
)

// Config holds all application configuration
type Config struct {
	Scan   ScanConfig   `yaml:"scan"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
	Faces  FacesConfig  `yaml:"faces"`
	Cache  CacheConfig  `yaml:"cache"`
}

type ScanConfig struct {
	Backend     string  `yaml:"backend"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Workers     int     `yaml:"workers"`
	CannyLow    float64 `yaml:"canny_low"`
	CannyHigh   float64 `yaml:"canny_high"`
}

type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	Threads     int    `yaml:"threads"`
}

type FacesConfig struct {
	Backend string `yaml:"backend"`
	// CascadePath points at a pigo or Haar cascade. Empty uses the pigo
	// facefinder cascade built into the binary.
	CascadePath string `yaml:"cascade_path"`
	// MinSize is the smallest face edge in source pixels.
	MinSize int `yaml:"min_size"`
	// MaxWidth downscales wider frames before detection; 0 disables it.
	MaxWidth       int     `yaml:"max_width"`
	ScoreThreshold float64 `yaml:"score_threshold"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects unknown backends and negative sizes
func (c *Config) Validate() error {
	switch c.Scan.Backend {
	case BackendFFmpeg, BackendOpenCV:
	default:
		return fmt.Errorf("unknown scan backend %q", c.Scan.Backend)
	}

	switch c.Faces.Backend {
	case BackendPigo, BackendOpenCV, BackendNone:
	default:
		return fmt.Errorf("unknown faces backend %q", c.Faces.Backend)
	}

	if c.Scan.Workers < 0 || c.FFmpeg.Threads < 0 || c.Faces.MinSize < 0 || c.Faces.MaxWidth < 0 {
		return fmt.Errorf("workers, threads, min_size and max_width must not be negative")
	}
	return nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Backend:     BackendFFmpeg,
			SampleRatio: 0.1,
			Workers:     1,
			CannyLow:    80,
			CannyHigh:   190,
		},
		FFmpeg: FFmpegConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			Threads:     0,
		},
		Faces: FacesConfig{
			Backend:        BackendPigo,
			CascadePath:    "",
			MinSize:        36,
			MaxWidth:       640,
			ScoreThreshold: 5.0,
		},
		Cache: CacheConfig{
			Enabled: false,
			Path:    filepath.Join(homeDir(), ".framescan", "cache.db"),
		},
	}
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func findConfigFile() string {
	candidates := []string{
		"./framescan.yaml",
		"./framescan.yml",
		filepath.Join(homeDir(), ".framescan", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
