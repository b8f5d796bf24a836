// ABOUTME: Tests for configuration loading
// ABOUTME: Defaults, overrides, unknown keys and joined validation errors
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromReader_Empty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if cfg.Server.Port != 8501 {
		t.Errorf("port = %d, want default 8501", cfg.Server.Port)
	}
}

func TestLoadFromReader_Overrides(t *testing.T) {
	yaml := `
server:
  port: 9000
  name: studio
  mdns: false
limits:
  max_upload_bytes: 1048576
  processing_timeout: 15s
  requests_per_second: 2.5
processing:
  engine: linear
  workers: 3
  output_bit_depth: 16
  strict_range: true
logging:
  level: debug
  json: true
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	if cfg.Server.Port != 9000 || cfg.Server.Name != "studio" || cfg.Server.MDNS {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.BindAddress != "0.0.0.0" {
		t.Errorf("bind address default lost: %q", cfg.Server.BindAddress)
	}
	if cfg.Limits.ProcessingTimeout != 15*time.Second {
		t.Errorf("processing timeout = %s, want 15s", cfg.Limits.ProcessingTimeout)
	}
	if cfg.Limits.RequestsPerSecond != 2.5 {
		t.Errorf("requests per second = %v, want 2.5", cfg.Limits.RequestsPerSecond)
	}
	if cfg.Processing.Engine != "linear" || cfg.Processing.Workers != 3 || !cfg.Processing.StrictRange {
		t.Errorf("processing = %+v", cfg.Processing)
	}
	if cfg.Processing.FFmpegTimeout != 2*time.Minute {
		t.Errorf("ffmpeg timeout default lost: %s", cfg.Processing.FFmpegTimeout)
	}
	if !cfg.Logging.JSON || cfg.Logging.Level != "debug" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadFromReader_UnknownKey(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("server:\n  prot: 80\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "prot") {
		t.Errorf("error should name the unknown key, got: %v", err)
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	yaml := `
server:
  port: 70000
limits:
  max_upload_bytes: 0
processing:
  engine: sinc
  workers: 0
  output_bit_depth: 12
logging:
  level: chatty
`
	_, err := LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected validation error")
	}

	for _, want := range []string{
		"server.port",
		"limits.max_upload_bytes",
		"processing.engine",
		"processing.workers",
		"processing.output_bit_depth",
		"logging.level",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidate_TempDir(t *testing.T) {
	cfg := Default()
	cfg.Processing.TempDir = filepath.Join(t.TempDir(), "missing")
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "temp_dir") {
		t.Errorf("expected temp_dir error, got %v", err)
	}

	cfg.Processing.TempDir = t.TempDir()
	if err := Validate(cfg); err != nil {
		t.Errorf("existing temp dir rejected: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicechanger.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8600\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8600 {
		t.Errorf("port = %d, want 8600", cfg.Server.Port)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
