//nolint:lll
package config

import "time"

// Config represents the complete configuration for the qrfeed application.
// It covers the reader pipeline, the frame source, the decoder and the scan
// and serve commands, and is loaded from configuration files, environment
// variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Reader  ReaderConfig  `mapstructure:"reader" yaml:"reader" json:"reader"`
	Source  SourceConfig  `mapstructure:"source" yaml:"source" json:"source"`
	Decoder DecoderConfig `mapstructure:"decoder" yaml:"decoder" json:"decoder"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// ReaderConfig contains the pipeline timings.
type ReaderConfig struct {
	IdleInterval  time.Duration `mapstructure:"idle_interval" yaml:"idle_interval" json:"idle_interval"`
	SettleDelay   time.Duration `mapstructure:"settle_delay" yaml:"settle_delay" json:"settle_delay"`
	TickInterval  time.Duration `mapstructure:"tick_interval" yaml:"tick_interval" json:"tick_interval"`
	DefaultWidth  int           `mapstructure:"default_width" yaml:"default_width" json:"default_width"`
	DefaultHeight int           `mapstructure:"default_height" yaml:"default_height" json:"default_height"`
	EnableOnStart bool          `mapstructure:"enable_on_start" yaml:"enable_on_start" json:"enable_on_start"`
}

// SourceConfig selects and tunes the frame source. Exactly one of Dir and
// Image is used; Image wins when both are set.
type SourceConfig struct {
	Dir           string        `mapstructure:"dir" yaml:"dir" json:"dir"`
	Image         string        `mapstructure:"image" yaml:"image" json:"image"`
	FrameInterval time.Duration `mapstructure:"frame_interval" yaml:"frame_interval" json:"frame_interval"`
	Loop          bool          `mapstructure:"loop" yaml:"loop" json:"loop"`
	Watch         bool          `mapstructure:"watch" yaml:"watch" json:"watch"`
}

// DecoderConfig contains barcode decoder settings.
type DecoderConfig struct {
	Formats   []string `mapstructure:"formats" yaml:"formats" json:"formats"`
	TryHarder bool     `mapstructure:"try_harder" yaml:"try_harder" json:"try_harder"`
}

// OutputConfig contains terminal output settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Rate limiting of the reader control endpoints
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client limits for enable/disable requests.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int  `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
}
