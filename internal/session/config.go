package session

import (
	"fmt"
	"log/slog"
	"os"
)

// minBitrateKbps is the floor below which the encoder produces garbage.
const minBitrateKbps = 100

// Config carries the user-facing recording settings.
type Config struct {
	FPS         int
	BitrateKbps int
	OutputDir   string
	Filename    string // optional custom output name
	Encoder     string // "auto" or an explicit variant name
	AudioDevice string // resolved ffmpeg device identifier, "" disables audio
	FFmpegPath  string
}

func DefaultConfig() *Config {
	cwd, _ := os.Getwd()
	return &Config{
		FPS:         30,
		BitrateKbps: 6000,
		OutputDir:   cwd,
		Encoder:     "software", // most reliable default
		FFmpegPath:  "ffmpeg",
	}
}

// Validate clamps out-of-range settings rather than rejecting them; only
// a missing encoder binary path is a hard error.
func (c *Config) Validate() error {
	if c.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg path is required")
	}
	if c.FPS < 1 {
		slog.Warn("frame rate clamped", "requested", c.FPS, "using", 1)
		c.FPS = 1
	}
	if c.BitrateKbps < minBitrateKbps {
		slog.Warn("bitrate clamped", "requested", c.BitrateKbps, "using", minBitrateKbps)
		c.BitrateKbps = minBitrateKbps
	}
	if c.OutputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve output directory: %w", err)
		}
		c.OutputDir = cwd
	}
	return nil
}
