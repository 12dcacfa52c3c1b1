package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Compression.MinQuality)
	assert.Equal(t, 95, cfg.Compression.MaxQuality)
	assert.Equal(t, int64(100*1024), cfg.Compression.ToleranceBytes)
	assert.Equal(t, "_compressed", cfg.Output.Suffix)
	assert.Equal(t, 300, cfg.Render.DPI)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 8080, cfg.Web.Port)
}

func TestLoadConfigFromFile(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
compression:
  min_quality: 10
  tolerance_bytes: 2048
render:
  format: JPEG
web:
  port: 9999
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Compression.MinQuality)
	assert.Equal(t, int64(2048), cfg.Compression.ToleranceBytes)
	// Unset keys keep their defaults.
	assert.Equal(t, 95, cfg.Compression.MaxQuality)
	assert.Equal(t, "jpeg", cfg.Render.Format)
	assert.Equal(t, 9999, cfg.Web.Port)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	viper.Reset()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidValues(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  dpi: 9000\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"quality bounds crossed", func(c *Config) {
			c.Compression.MinQuality = 80
			c.Compression.MaxQuality = 20
		}},
		{"zero min scale", func(c *Config) { c.Compression.MinScale = 0 }},
		{"max scale above 1", func(c *Config) { c.Compression.MaxScale = 1.5 }},
		{"scale bounds crossed", func(c *Config) {
			c.Compression.MinScale = 0.8
			c.Compression.MaxScale = 0.5
		}},
		{"negative tolerance", func(c *Config) { c.Compression.ToleranceBytes = -1 }},
		{"render dpi too low", func(c *Config) { c.Render.DPI = 10 }},
		{"render dpi too high", func(c *Config) { c.Render.DPI = 2400 }},
		{"bad render format", func(c *Config) { c.Render.Format = "gif" }},
		{"bad jpeg quality", func(c *Config) { c.Render.JPEGQuality = 0 }},
		{"history without path", func(c *Config) {
			c.History.Enabled = true
			c.History.Path = ""
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"zero port", func(c *Config) { c.Web.Port = 0 }},
		{"port out of range", func(c *Config) { c.Web.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Compression.MinQuality = 0
	cfg.Compression.MaxQuality = 150
	cfg.Compression.MaxIterations = 0
	cfg.Compression.MinImageBytes = -5
	cfg.Output.Suffix = ""
	cfg.Render.Format = "PNG"
	cfg.OCR.Language = ""
	cfg.OCR.DPI = 0
	cfg.Web.ReadTimeoutSec = 0
	cfg.Web.IdleTimeoutSec = 0

	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1, cfg.Compression.MinQuality)
	assert.Equal(t, 100, cfg.Compression.MaxQuality)
	assert.Equal(t, 12, cfg.Compression.MaxIterations)
	assert.Equal(t, int64(0), cfg.Compression.MinImageBytes)
	assert.Equal(t, "_compressed", cfg.Output.Suffix)
	assert.Equal(t, "png", cfg.Render.Format)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 30, cfg.Web.ReadTimeoutSec)
	assert.Equal(t, 120, cfg.Web.IdleTimeoutSec)
}
