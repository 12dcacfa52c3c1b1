package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the main configuration structure.
type Config struct {
	Compression CompressionConfig `mapstructure:"compression"`
	Output      OutputConfig      `mapstructure:"output"`
	Render      RenderConfig      `mapstructure:"render"`
	OCR         OCRConfig         `mapstructure:"ocr"`
	History     HistoryConfig     `mapstructure:"history"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Web         WebConfig         `mapstructure:"web"`
}

// CompressionConfig contains the default bounds for the target-size engine.
type CompressionConfig struct {
	MinQuality     int     `mapstructure:"min_quality"`
	MaxQuality     int     `mapstructure:"max_quality"`
	MinScale       float64 `mapstructure:"min_scale"`
	MaxScale       float64 `mapstructure:"max_scale"`
	ToleranceBytes int64   `mapstructure:"tolerance_bytes"`
	MaxIterations  int     `mapstructure:"max_iterations"`
	MinImageBytes  int64   `mapstructure:"min_image_bytes"`
}

// OutputConfig contains output naming settings.
type OutputConfig struct {
	Suffix    string `mapstructure:"suffix"`
	Overwrite bool   `mapstructure:"overwrite"`
}

// RenderConfig contains page rendering settings for PDF to image export.
type RenderConfig struct {
	DPI         int    `mapstructure:"dpi"`
	Format      string `mapstructure:"format"`
	JPEGQuality int    `mapstructure:"jpeg_quality"`
}

// OCRConfig contains text recognition settings.
type OCRConfig struct {
	Language string `mapstructure:"language"`
	DPI      int    `mapstructure:"dpi"`
}

// HistoryConfig contains compression history database settings.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// WebConfig contains web server settings.
type WebConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeoutSec int `mapstructure:"read_timeout_sec"`
	IdleTimeoutSec int `mapstructure:"idle_timeout_sec"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Compression: CompressionConfig{
			MinQuality:     5,
			MaxQuality:     95,
			MinScale:       0.1,
			MaxScale:       1.0,
			ToleranceBytes: 100 * 1024,
			MaxIterations:  12,
			MinImageBytes:  4096,
		},
		Output: OutputConfig{
			Suffix:    "_compressed",
			Overwrite: false,
		},
		Render: RenderConfig{
			DPI:         300,
			Format:      "png",
			JPEGQuality: 90,
		},
		OCR: OCRConfig{
			Language: "eng",
			DPI:      300,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    "localpdf-history.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   "localpdf.log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
		Web: WebConfig{
			Port:           8080,
			ReadTimeoutSec: 30,
			IdleTimeoutSec: 120,
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		// Look for config file in current directory and home directory
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.localpdf")
		viper.AddConfigPath("/etc/localpdf")
	}

	// Enable environment variable support
	viper.SetEnvPrefix("LOCALPDF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Unmarshal config
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate and normalize config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration and normalizes out-of-range values.
func (c *Config) Validate() error {
	comp := &c.Compression

	if comp.MinQuality < 1 {
		comp.MinQuality = 1
	}
	if comp.MaxQuality > 100 {
		comp.MaxQuality = 100
	}
	if comp.MinQuality > comp.MaxQuality {
		return fmt.Errorf("min_quality (%d) must not exceed max_quality (%d)",
			comp.MinQuality, comp.MaxQuality)
	}

	if comp.MinScale <= 0 || comp.MaxScale > 1.0 || comp.MinScale > comp.MaxScale {
		return fmt.Errorf("scale bounds must satisfy 0 < min_scale <= max_scale <= 1.0 (got %.2f..%.2f)",
			comp.MinScale, comp.MaxScale)
	}

	if comp.ToleranceBytes < 0 {
		return fmt.Errorf("tolerance_bytes must not be negative")
	}
	if comp.MaxIterations <= 0 {
		comp.MaxIterations = 12
	}
	if comp.MinImageBytes < 0 {
		comp.MinImageBytes = 0
	}

	if c.Output.Suffix == "" {
		c.Output.Suffix = "_compressed"
	}

	if c.Render.DPI < 36 || c.Render.DPI > 1200 {
		return fmt.Errorf("render dpi must be between 36 and 1200 (got %d)", c.Render.DPI)
	}
	c.Render.Format = strings.ToLower(c.Render.Format)
	switch c.Render.Format {
	case "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("invalid render format: %s (valid: png, jpeg)", c.Render.Format)
	}
	if c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100 {
		return fmt.Errorf("render jpeg_quality must be between 1 and 100 (got %d)", c.Render.JPEGQuality)
	}

	if c.OCR.Language == "" {
		c.OCR.Language = "eng"
	}
	if c.OCR.DPI <= 0 {
		c.OCR.DPI = 300
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web port: %d", c.Web.Port)
	}
	if c.Web.ReadTimeoutSec <= 0 {
		c.Web.ReadTimeoutSec = 30
	}
	if c.Web.IdleTimeoutSec <= 0 {
		c.Web.IdleTimeoutSec = 120
	}

	return nil
}
