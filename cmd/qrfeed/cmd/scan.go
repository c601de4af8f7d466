package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/display"
	"github.com/spf13/cobra"
)

var errNoDetection = errors.New("no code detected")

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Read codes from an image feed and print each new value",
	Long: `Read frames from an image or a directory of images and print every newly
detected code value to stdout. A value is printed once until a different
value is seen or the reader is restarted.

Examples:
  qrfeed scan --image code.png --once
  qrfeed scan --dir ./frames --frame-interval 500ms
  qrfeed scan --dir ./frames --watch --format json
  qrfeed scan --dir ./frames --timeout 30s --format yaml`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyPipelineFlags(cmd, cfg)
	if cmd.Flags().Changed("format") {
		cfg.Output.Format, _ = cmd.Flags().GetString("format")
	}
	once, _ := cmd.Flags().GetBool("once")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	term, err := display.NewTerminal(cmd.OutOrStdout(), cfg.Output.Format)
	if err != nil {
		return err
	}

	logger := slog.Default()
	r, err := newReader(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.Warn("Failed to stop frame source", "error", err)
		}
	}()
	r.SetTextSink(term)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if once {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()

		id, ch := r.Subscribe()
		defer r.Unsubscribe(id)
		go func() {
			select {
			case <-ch:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if !cfg.Reader.EnableOnStart {
		if err := r.Enable(); err != nil {
			return err
		}
	}

	start := time.Now()
	if err := r.Run(ctx); err != nil {
		return err
	}

	logger.Debug("Scan finished",
		"detections", term.Count(),
		"duration_ms", time.Since(start).Milliseconds())

	if once && term.Count() == 0 {
		if timeout > 0 {
			return fmt.Errorf("%w within %s", errNoDetection, timeout)
		}
		return errNoDetection
	}
	return nil
}

func init() {
	rootCmd.AddCommand(scanCmd)
	addPipelineFlags(scanCmd.Flags())
	scanCmd.Flags().StringP("format", "f", display.FormatText, "output format (text, json, yaml)")
	scanCmd.Flags().Bool("once", false, "exit after the first detection")
	scanCmd.Flags().Duration("timeout", 0, "stop scanning after this duration (0 = until interrupted)")
}
