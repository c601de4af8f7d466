// Package decode runs the background loop that drains the frame mailbox
// through a barcode decoder.
package decode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/barcode"
	"github.com/MeKo-Tech/qrfeed/internal/mailbox"
	"github.com/MeKo-Tech/qrfeed/internal/result"
)

// DefaultIdleInterval is the pause between loop iterations.
const DefaultIdleInterval = 200 * time.Millisecond

var errDecoderPanic = errors.New("decoder panic")

// Options configures a Worker.
type Options struct {
	// IdleInterval is slept after every iteration, paused or not.
	IdleInterval time.Duration
	// Enabled gates decode work. Nil means always enabled.
	Enabled func() bool
	Logger  *slog.Logger
}

// Stats counts loop activity.
type Stats struct {
	Iterations uint64 `json:"iterations"`
	Attempts   uint64 `json:"attempts"`
	Found      uint64 `json:"found"`
	Failures   uint64 `json:"failures"`
}

// Worker polls the mailbox while enabled and publishes decoded text.
type Worker struct {
	mb      *mailbox.Mailbox
	dec     barcode.Decoder
	results *result.Channel
	enabled func() bool
	idle    time.Duration
	logger  *slog.Logger

	iterations atomic.Uint64
	attempts   atomic.Uint64
	found      atomic.Uint64
	failures   atomic.Uint64
}

// NewWorker returns a worker; call Run to start it.
func NewWorker(mb *mailbox.Mailbox, dec barcode.Decoder, results *result.Channel, opts Options) *Worker {
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = DefaultIdleInterval
	}
	if opts.Enabled == nil {
		opts.Enabled = func() bool { return true }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Worker{
		mb:      mb,
		dec:     dec,
		results: results,
		enabled: opts.Enabled,
		idle:    opts.IdleInterval,
		logger:  opts.Logger,
	}
}

// Run loops until ctx is cancelled. Cancellation is observed at the top of
// every iteration and during the idle sleep, never in the middle of a decode.
func (w *Worker) Run(ctx context.Context) {
	timer := time.NewTimer(w.idle)
	defer timer.Stop()

	w.logger.Debug("Decode worker started", "idle_interval", w.idle)
	for {
		if ctx.Err() != nil {
			w.logger.Debug("Decode worker stopped", "iterations", w.iterations.Load())
			return
		}
		w.iterations.Add(1)

		if w.enabled() {
			w.Step(ctx)
		} else {
			decodeIdleIterations.Inc()
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.idle)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
}

// Step takes at most one frame from the mailbox and decodes it. It reports
// whether a frame was taken. Decoder errors and panics are absorbed.
func (w *Worker) Step(ctx context.Context) bool {
	session := w.results.Session()
	f, ok := w.mb.Take()
	if !ok {
		decodeIdleIterations.Inc()
		return false
	}
	w.attempts.Add(1)

	start := time.Now()
	text, err := w.decode(ctx, f.Pixels, f.Width, f.Height)
	decodeDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		w.failures.Add(1)
		outcome := "error"
		if errors.Is(err, errDecoderPanic) {
			outcome = "panic"
		}
		decodeAttemptsTotal.WithLabelValues(outcome).Inc()
		w.logger.Debug("Decode failed", "seq", f.Seq, "width", f.Width, "height", f.Height, "error", err)
	case text == "":
		decodeAttemptsTotal.WithLabelValues("empty").Inc()
	case !w.results.PublishFor(session, text):
		decodeAttemptsTotal.WithLabelValues("stale").Inc()
		w.logger.Debug("Dropped result from previous session", "seq", f.Seq)
	default:
		w.found.Add(1)
		decodeAttemptsTotal.WithLabelValues("found").Inc()
		w.logger.Debug("Code decoded", "seq", f.Seq, "length", len(text))
	}
	return true
}

// Stats returns the loop counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Iterations: w.iterations.Load(),
		Attempts:   w.attempts.Load(),
		Found:      w.found.Load(),
		Failures:   w.failures.Load(),
	}
}

func (w *Worker) decode(ctx context.Context, pixels []byte, width, height int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errDecoderPanic, r)
		}
	}()
	return w.dec.Decode(ctx, pixels, width, height)
}
