package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/qrfeed/internal/barcode"
	"github.com/MeKo-Tech/qrfeed/internal/capture"
	"github.com/MeKo-Tech/qrfeed/internal/decode"
	"github.com/MeKo-Tech/qrfeed/internal/display"
	"github.com/MeKo-Tech/qrfeed/internal/lifecycle"
	"github.com/MeKo-Tech/qrfeed/internal/reader"
	"github.com/MeKo-Tech/qrfeed/internal/source"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Reader: ReaderConfig{
			IdleInterval:  decode.DefaultIdleInterval,
			SettleDelay:   lifecycle.DefaultSettleDelay,
			TickInterval:  reader.DefaultTickInterval,
			DefaultWidth:  capture.DefaultWidth,
			DefaultHeight: capture.DefaultHeight,
			EnableOnStart: true,
		},
		Source: SourceConfig{
			FrameInterval: source.DefaultFrameInterval,
			Loop:          true,
			Watch:         false,
		},
		Decoder: DecoderConfig{
			Formats:   []string{barcode.FormatQR.String()},
			TryHarder: false,
		},
		Output: OutputConfig{
			Format: display.FormatText,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 60,
				RequestsPerHour:   1000,
				MaxRequestsPerDay: 0,
			},
		},
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Output.Format != "" {
		if err := display.ValidateFormat(c.Output.Format); err != nil {
			return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(display.Formats, ", "))
		}
	}

	if c.Reader.IdleInterval <= 0 {
		return fmt.Errorf("invalid reader idle interval: %s (must be positive)", c.Reader.IdleInterval)
	}
	if c.Reader.TickInterval <= 0 {
		return fmt.Errorf("invalid reader tick interval: %s (must be positive)", c.Reader.TickInterval)
	}
	if c.Reader.SettleDelay < 0 {
		return fmt.Errorf("invalid reader settle delay: %s (must not be negative)", c.Reader.SettleDelay)
	}
	if c.Reader.DefaultWidth <= 0 || c.Reader.DefaultHeight <= 0 {
		return fmt.Errorf("invalid reader default dimensions: %dx%d (must be positive)", c.Reader.DefaultWidth, c.Reader.DefaultHeight)
	}
	if c.Source.FrameInterval <= 0 {
		return fmt.Errorf("invalid source frame interval: %s (must be positive)", c.Source.FrameInterval)
	}

	if _, err := barcode.ParseFormats(c.Decoder.Formats); err != nil {
		return fmt.Errorf("invalid decoder formats: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must be positive)", c.Server.ShutdownTimeout)
	}

	rl := c.Server.RateLimit
	if rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 || rl.MaxRequestsPerDay < 0 {
		return fmt.Errorf("invalid rate limit: limits must not be negative")
	}

	return nil
}

// ToReaderOptions converts the reader section to reader options.
func (c *Config) ToReaderOptions() reader.Options {
	opts := reader.DefaultOptions()
	opts.IdleInterval = c.Reader.IdleInterval
	opts.SettleDelay = c.Reader.SettleDelay
	opts.TickInterval = c.Reader.TickInterval
	opts.DefaultWidth = c.Reader.DefaultWidth
	opts.DefaultHeight = c.Reader.DefaultHeight
	opts.EnableOnStart = c.Reader.EnableOnStart
	return opts
}

// ToDecoderOptions converts the decoder section to barcode options.
func (c *Config) ToDecoderOptions() (barcode.Options, error) {
	formats, err := barcode.ParseFormats(c.Decoder.Formats)
	if err != nil {
		return barcode.Options{}, err
	}
	opts := barcode.DefaultOptions()
	if len(formats) > 0 {
		opts.Formats = formats
	}
	opts.TryHarder = c.Decoder.TryHarder
	return opts, nil
}

// ToDirOptions converts the source section to directory source options.
func (c *Config) ToDirOptions() source.DirOptions {
	return source.DirOptions{
		Dir:           c.Source.Dir,
		FrameInterval: c.Source.FrameInterval,
		Loop:          c.Source.Loop,
		Watch:         c.Source.Watch,
	}
}

// contains checks if a slice contains a specific string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
