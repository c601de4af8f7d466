package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/config"
	"github.com/MeKo-Tech/qrfeed/internal/server"
	"github.com/MeKo-Tech/qrfeed/internal/version"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the reader",
	Long: `Start an HTTP server that exposes a running reader.

The server provides the following endpoints:
  GET  /health                - Health check endpoint
  GET  /reader                - Reader state and statistics
  GET  /reader/result         - Last detected value
  GET  /reader/frame          - Current source frame as PNG
  POST /reader/enable         - Start reading
  POST /reader/disable        - Stop reading
  GET  /ws                    - Websocket stream of detections
  GET  /metrics               - Prometheus metrics

Examples:
  qrfeed serve --dir ./frames
  qrfeed serve --image code.png --port 8080
  qrfeed serve --dir ./frames --host 0.0.0.0 --rate-limit-enabled`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// applyServerFlags copies explicitly set server flags over cfg.
func applyServerFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		cfg.Server.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("shutdown-timeout") {
		cfg.Server.ShutdownTimeout, _ = flags.GetInt("shutdown-timeout")
	}
	if flags.Changed("rate-limit-enabled") {
		cfg.Server.RateLimit.Enabled, _ = flags.GetBool("rate-limit-enabled")
	}
	if flags.Changed("requests-per-minute") {
		cfg.Server.RateLimit.RequestsPerMinute, _ = flags.GetInt("requests-per-minute")
	}
	if flags.Changed("requests-per-hour") {
		cfg.Server.RateLimit.RequestsPerHour, _ = flags.GetInt("requests-per-hour")
	}
	if flags.Changed("max-requests-per-day") {
		cfg.Server.RateLimit.MaxRequestsPerDay, _ = flags.GetInt("max-requests-per-day")
	}
}

// serverConfig converts the server section into server options.
func serverConfig(cfg *config.Config, logger *slog.Logger) server.Config {
	return server.Config{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		CORSOrigin: cfg.Server.CORSOrigin,
		Version:    version.Version,
		RateLimit: server.RateLimitConfig{
			Enabled:           cfg.Server.RateLimit.Enabled,
			RequestsPerMinute: cfg.Server.RateLimit.RequestsPerMinute,
			RequestsPerHour:   cfg.Server.RateLimit.RequestsPerHour,
			MaxRequestsPerDay: cfg.Server.RateLimit.MaxRequestsPerDay,
		},
		Logger: logger,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyPipelineFlags(cmd, cfg)
	applyServerFlags(cmd, cfg)

	logger := slog.Default()
	r, err := newReader(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.NewServer(r, serverConfig(cfg, logger))
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	runDone := make(chan error, 1)
	go func() {
		runDone <- r.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			"addr", addr,
			"cors_origin", cfg.Server.CORSOrigin,
			"rate_limit", cfg.Server.RateLimit.Enabled,
			"version", version.Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var listenErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown requested")
	case err, ok := <-serveErr:
		if ok {
			listenErr = fmt.Errorf("HTTP server failed: %w", err)
			logger.Error("HTTP server failed", "error", err)
		}
	}
	stop()

	logger.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	} else {
		logger.Info("HTTP server shutdown completed")
	}

	<-runDone
	if err := r.Close(); err != nil {
		logger.Error("Reader cleanup error", "error", err)
	}

	logger.Info("Graceful shutdown completed")
	return listenErr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addPipelineFlags(serveCmd.Flags())
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	// Rate limiting flags
	serveCmd.Flags().Bool("rate-limit-enabled", false, "rate limit the reader control endpoints")
	serveCmd.Flags().Int("requests-per-minute", 60, "maximum control requests per minute per client")
	serveCmd.Flags().Int("requests-per-hour", 1000, "maximum control requests per hour per client")
	serveCmd.Flags().Int("max-requests-per-day", 0, "maximum control requests per day per client (0 = unlimited)")
}
