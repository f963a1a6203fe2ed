// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInvalidHoldSeconds is returned when HOLD_SECONDS is not positive.
	ErrInvalidHoldSeconds = errors.New("config: HOLD_SECONDS must be positive")
	// ErrInvalidFadeSeconds is returned when FADE_SECONDS is negative or
	// not strictly smaller than HOLD_SECONDS.
	ErrInvalidFadeSeconds = errors.New("config: FADE_SECONDS must satisfy 0 <= fade < hold")
	// ErrInvalidVideoParams is returned when video dimensions or frame rate are not positive.
	ErrInvalidVideoParams = errors.New("config: video width, height and fps must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/storybook" json:"temp_dir"`

	// Transcoding settings
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	VideoWidth  int    `env:"VIDEO_WIDTH, default=1280" json:"video_width"`
	VideoHeight int    `env:"VIDEO_HEIGHT, default=720" json:"video_height"`
	VideoFPS    int    `env:"VIDEO_FPS, default=25" json:"video_fps"`

	// Page timing defaults, used when an export request omits them.
	HoldSeconds float64 `env:"HOLD_SECONDS, default=6" json:"hold_seconds"`
	FadeSeconds float64 `env:"FADE_SECONDS, default=0.5" json:"fade_seconds"`

	// MaxConcurrentEncodes limits parallel ffmpeg segment encodes within one
	// export. Each encode is an independent process writing a uniquely named
	// segment, so values above 1 are safe; 1 serializes them.
	MaxConcurrentEncodes int `env:"MAX_CONCURRENT_ENCODES, default=1" json:"max_concurrent_encodes"`

	// Optional S3 settings for publishing finished videos.
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if any value fails validation.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the loaded configuration is internally consistent.
func (c *Config) Validate() error {
	if c.HoldSeconds <= 0 {
		return fmt.Errorf("%w: got %.2f", ErrInvalidHoldSeconds, c.HoldSeconds)
	}
	if c.FadeSeconds < 0 || c.FadeSeconds >= c.HoldSeconds {
		return fmt.Errorf("%w: fade=%.2f hold=%.2f", ErrInvalidFadeSeconds, c.FadeSeconds, c.HoldSeconds)
	}
	if c.VideoWidth <= 0 || c.VideoHeight <= 0 || c.VideoFPS <= 0 {
		return fmt.Errorf("%w: %dx%d@%d", ErrInvalidVideoParams, c.VideoWidth, c.VideoHeight, c.VideoFPS)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, TempDir: %s, FFmpegPath: %s, Video: %dx%d@%d, HoldSeconds: %.2f, FadeSeconds: %.2f, MaxConcurrentEncodes: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.TempDir,
		c.FFmpegPath,
		c.VideoWidth,
		c.VideoHeight,
		c.VideoFPS,
		c.HoldSeconds,
		c.FadeSeconds,
		c.MaxConcurrentEncodes,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
