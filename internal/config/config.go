// ABOUTME: Voice changer configuration model and defaults
// ABOUTME: YAML-tagged structs shared by the web host and the terminal app
package config

import (
	"runtime"
	"time"
)

// Config is the full voice changer configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Limits     LimitsConfig     `yaml:"limits"`
	Processing ProcessingConfig `yaml:"processing"`
	Logging    LoggingConfig    `yaml:"logging"`
	Sentry     SentryConfig     `yaml:"sentry"`
}

// ServerConfig controls the HTTP listener and its extras
type ServerConfig struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
	Name        string `yaml:"name"`
	MDNS        bool   `yaml:"mdns"`
	TUI         bool   `yaml:"tui"`
	Debug       bool   `yaml:"debug"`
}

// LimitsConfig bounds what a single request may cost
type LimitsConfig struct {
	MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
	ProcessingTimeout time.Duration `yaml:"processing_timeout"`
	// RequestsPerSecond per client IP; zero disables rate limiting
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// ProcessingConfig controls decoding and transforming
type ProcessingConfig struct {
	Engine         string        `yaml:"engine"`
	Workers        int           `yaml:"workers"`
	TempDir        string        `yaml:"temp_dir"`
	OutputBitDepth int           `yaml:"output_bit_depth"` // 0 keeps the source depth
	StrictRange    bool          `yaml:"strict_range"`
	FFmpegTimeout  time.Duration `yaml:"ffmpeg_timeout"`
}

// LoggingConfig mirrors logging.Options
type LoggingConfig struct {
	Directory string `yaml:"directory"`
	Level     string `yaml:"level"`
	JSON      bool   `yaml:"json"`
	Colors    bool   `yaml:"colors"`
}

// SentryConfig enables error reporting when DSN is set
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress: "0.0.0.0",
			Port:        8501,
			MDNS:        true,
		},
		Limits: LimitsConfig{
			MaxUploadBytes:    50 << 20,
			ProcessingTimeout: 2 * time.Minute,
		},
		Processing: ProcessingConfig{
			Engine:        "lagrange",
			Workers:       runtime.NumCPU(),
			FFmpegTimeout: 2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
