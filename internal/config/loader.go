// ABOUTME: YAML loading and validation for the voice changer configuration
// ABOUTME: Unknown keys are rejected and every validation failure is reported
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/resample"
)

// Load reads the YAML configuration file at path on top of Default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and validates it.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range [0, 65535]", cfg.Server.Port))
	}

	if cfg.Limits.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_upload_bytes must be positive, got %d", cfg.Limits.MaxUploadBytes))
	}
	if cfg.Limits.ProcessingTimeout < 0 {
		errs = append(errs, fmt.Errorf("limits.processing_timeout must not be negative, got %s", cfg.Limits.ProcessingTimeout))
	}
	if cfg.Limits.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("limits.requests_per_second must not be negative, got %v", cfg.Limits.RequestsPerSecond))
	}

	if _, err := resample.ParseEngine(cfg.Processing.Engine); err != nil {
		errs = append(errs, fmt.Errorf("processing.engine: %w", err))
	}
	if cfg.Processing.Workers < 1 {
		errs = append(errs, fmt.Errorf("processing.workers must be at least 1, got %d", cfg.Processing.Workers))
	}
	switch cfg.Processing.OutputBitDepth {
	case 0, 8, 16, 24:
	default:
		errs = append(errs, fmt.Errorf("processing.output_bit_depth %d is invalid; valid values: 0, 8, 16, 24", cfg.Processing.OutputBitDepth))
	}
	if cfg.Processing.TempDir != "" {
		if info, err := os.Stat(cfg.Processing.TempDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("processing.temp_dir %q is not a directory", cfg.Processing.TempDir))
		}
	}

	if _, err := logrus.ParseLevel(cfg.Logging.Level); cfg.Logging.Level != "" && err != nil {
		errs = append(errs, fmt.Errorf("logging.level %q is invalid; valid values: debug, info, warn, error", cfg.Logging.Level))
	}

	return errors.Join(errs...)
}
