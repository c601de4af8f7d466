package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/barcode"
	"github.com/MeKo-Tech/qrfeed/internal/config"
	"github.com/MeKo-Tech/qrfeed/internal/reader"
	"github.com/MeKo-Tech/qrfeed/internal/source"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var errNoSource = errors.New("no frame source: set --image or --dir")

// addPipelineFlags registers the source, decoder and reader flags shared by
// scan and serve.
func addPipelineFlags(fs *pflag.FlagSet) {
	fs.String("image", "", "decode frames from a single image file")
	fs.String("dir", "", "play back a directory of images as a feed")
	fs.Duration("frame-interval", source.DefaultFrameInterval, "time each directory image stays on screen")
	fs.Bool("loop", true, "restart directory playback after the last image")
	fs.Bool("watch", false, "pick up images added to or removed from --dir")
	fs.StringSlice("formats", nil, "barcode formats to decode (qr, datamatrix, aztec, code128, ean13, ...)")
	fs.Bool("try-harder", false, "spend more time per frame looking for a code")
	fs.Duration("settle-delay", 0, "delay between starting the source and decoding")
	fs.Duration("idle-interval", 0, "decode worker poll interval when the mailbox is empty")
}

// applyPipelineFlags copies explicitly set pipeline flags over cfg.
func applyPipelineFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("image") {
		cfg.Source.Image, _ = flags.GetString("image")
	}
	if flags.Changed("dir") {
		cfg.Source.Dir, _ = flags.GetString("dir")
	}
	if flags.Changed("frame-interval") {
		cfg.Source.FrameInterval, _ = flags.GetDuration("frame-interval")
	}
	if flags.Changed("loop") {
		cfg.Source.Loop, _ = flags.GetBool("loop")
	}
	if flags.Changed("watch") {
		cfg.Source.Watch, _ = flags.GetBool("watch")
	}
	if flags.Changed("formats") {
		cfg.Decoder.Formats, _ = flags.GetStringSlice("formats")
	}
	if flags.Changed("try-harder") {
		cfg.Decoder.TryHarder, _ = flags.GetBool("try-harder")
	}
	if flags.Changed("settle-delay") {
		cfg.Reader.SettleDelay, _ = flags.GetDuration("settle-delay")
	}
	if flags.Changed("idle-interval") {
		cfg.Reader.IdleInterval, _ = flags.GetDuration("idle-interval")
	}
}

// newSource builds the frame source selected by cfg. A single image wins
// over a directory.
func newSource(cfg *config.Config) (source.Source, error) {
	switch {
	case cfg.Source.Image != "":
		return source.NewStaticFile(cfg.Source.Image)
	case cfg.Source.Dir != "":
		return source.NewDir(cfg.ToDirOptions())
	default:
		return nil, errNoSource
	}
}

// newReader validates cfg and wires source, decoder and reader together.
func newReader(cfg *config.Config, logger *slog.Logger) (*reader.Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	decOpts, err := cfg.ToDecoderOptions()
	if err != nil {
		return nil, err
	}
	dec, err := barcode.NewZXing(decOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	src, err := newSource(cfg)
	if err != nil {
		return nil, err
	}

	opts := cfg.ToReaderOptions()
	opts.Logger = logger

	start := time.Now()
	r := reader.New(src, dec, opts)
	w, h := src.Dimensions()
	logger.Debug("Reader created",
		"image", cfg.Source.Image,
		"dir", cfg.Source.Dir,
		"width", w,
		"height", h,
		"duration_ms", time.Since(start).Milliseconds())
	return r, nil
}
