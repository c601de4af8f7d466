// Package reader wires the frame source, capture driver, mailbox, decode
// worker, lifecycle and result channel into the owner-facing QR reader.
//
// A Reader has two execution contexts. The foreground calls Tick (directly or
// through Run) once per application frame; Tick completes the settle delay,
// deposits the newest capture into the mailbox and forwards any new result to
// subscribers and sinks. The background decode goroutine is started by New
// and runs until Close.
package reader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/barcode"
	"github.com/MeKo-Tech/qrfeed/internal/capture"
	"github.com/MeKo-Tech/qrfeed/internal/decode"
	"github.com/MeKo-Tech/qrfeed/internal/lifecycle"
	"github.com/MeKo-Tech/qrfeed/internal/mailbox"
	"github.com/MeKo-Tech/qrfeed/internal/result"
	"github.com/MeKo-Tech/qrfeed/internal/source"
	"github.com/google/uuid"
)

// ErrClosed is returned by owner calls made after Close.
var ErrClosed = errors.New("reader: closed")

// Default timings.
const (
	DefaultTickInterval     = 33 * time.Millisecond
	DefaultSubscriberBuffer = 16
)

// FeedSink displays the raw camera feed. It is bound to the frame source
// itself; the reader only hands the source over.
type FeedSink interface {
	BindSource(src source.Source)
}

// TextSink mirrors every newly detected value.
type TextSink interface {
	ShowText(text string)
}

// Options configures a Reader.
type Options struct {
	IdleInterval     time.Duration
	// SettleDelay is the warm-up before decoding; zero enables on the next tick.
	SettleDelay      time.Duration
	TickInterval     time.Duration
	DefaultWidth     int
	DefaultHeight    int
	SubscriberBuffer int
	// EnableOnStart enables the reader from New.
	EnableOnStart bool
	Logger        *slog.Logger
	// Now is the foreground clock used for the settle delay.
	Now func() time.Time
}

// DefaultOptions returns the stock timings with EnableOnStart set.
func DefaultOptions() Options {
	return Options{
		IdleInterval:     decode.DefaultIdleInterval,
		SettleDelay:      lifecycle.DefaultSettleDelay,
		TickInterval:     DefaultTickInterval,
		DefaultWidth:     capture.DefaultWidth,
		DefaultHeight:    capture.DefaultHeight,
		SubscriberBuffer: DefaultSubscriberBuffer,
		EnableOnStart:    true,
	}
}

// Status is a point-in-time view of the reader.
type Status struct {
	State      string        `json:"state"`
	LastResult string        `json:"last_result"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Mailbox    mailbox.Stats `json:"mailbox"`
	Decoder    decode.Stats  `json:"decoder"`
}

// Reader is the owner API of the decode pipeline.
type Reader struct {
	src     source.Source
	mb      *mailbox.Mailbox
	results *result.Channel
	driver  *capture.Driver
	life    *lifecycle.Lifecycle
	worker  *decode.Worker

	tickInterval time.Duration
	subBuffer    int
	now          func() time.Time
	logger       *slog.Logger

	mu   sync.Mutex
	subs map[string]chan string
	feed FeedSink
	text TextSink

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New builds a reader over src and dec and starts its decode goroutine.
// The reader starts Disabled unless opts.EnableOnStart is set.
func New(src source.Source, dec barcode.Decoder, opts Options) *Reader {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = DefaultSubscriberBuffer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := &Reader{
		src:          src,
		mb:           mailbox.New(),
		results:      result.New(),
		tickInterval: opts.TickInterval,
		subBuffer:    opts.SubscriberBuffer,
		now:          opts.Now,
		logger:       opts.Logger,
		subs:         make(map[string]chan string),
		done:         make(chan struct{}),
	}
	r.driver = capture.New(src, r.mb, capture.Options{
		DefaultWidth:  opts.DefaultWidth,
		DefaultHeight: opts.DefaultHeight,
	})
	r.life = lifecycle.New(lifecycle.Options{
		SettleDelay: opts.SettleDelay,
		Now:         opts.Now,
		Logger:      opts.Logger,
		Hooks: lifecycle.Hooks{
			Starting:   r.onStarting,
			Disabled:   r.onDisabled,
			Transition: observeTransition,
		},
	})
	r.worker = decode.NewWorker(r.mb, dec, r.results, decode.Options{
		IdleInterval: opts.IdleInterval,
		Enabled:      r.life.Enabled,
		Logger:       opts.Logger,
	})
	readerState.Set(float64(lifecycle.Disabled))

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.worker.Run(ctx)
	}()

	if opts.EnableOnStart {
		r.life.Enable()
	}
	return r
}

func (r *Reader) onStarting() {
	r.results.Reset()
	r.mb.Reset()
	r.driver.Reset()
	if err := r.src.Start(); err != nil {
		r.logger.Warn("Failed to start frame source", "error", err)
	}
	r.driver.Refresh()
	w, h := r.driver.CurrentDimensions()
	r.logger.Debug("Frame source started", "width", w, "height", h)
}

func (r *Reader) onDisabled() {
	r.results.Reset()
	r.mb.Reset()
	if err := r.src.Pause(); err != nil {
		r.logger.Warn("Failed to pause frame source", "error", err)
	}
}

func observeTransition(from, to lifecycle.State) {
	readerState.Set(float64(to))
	readerTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
}

// Enable starts capture. Decoding begins once the settle delay has elapsed
// and a subsequent Tick observes it. Enabling an already enabled or starting
// reader restarts the sequence.
func (r *Reader) Enable() error {
	if r.closed.Load() {
		return ErrClosed
	}
	r.life.Enable()
	return nil
}

// Disable stops capture and clears the last result. Disabling a disabled
// reader does nothing.
func (r *Reader) Disable() error {
	if r.closed.Load() {
		return ErrClosed
	}
	r.life.Disable()
	return nil
}

// State returns the lifecycle state.
func (r *Reader) State() lifecycle.State {
	return r.life.State()
}

// LastResult returns the most recently decoded value, or "" after a reset.
func (r *Reader) LastResult() string {
	return r.results.Last()
}

// Dimensions returns the capture resolution in use.
func (r *Reader) Dimensions() (int, int) {
	return r.driver.CurrentDimensions()
}

// Source returns the frame source.
func (r *Reader) Source() source.Source {
	return r.src
}

// Status returns a snapshot for observers.
func (r *Reader) Status() Status {
	w, h := r.driver.CurrentDimensions()
	return Status{
		State:      r.life.State().String(),
		LastResult: r.results.Last(),
		Width:      w,
		Height:     h,
		Mailbox:    r.mb.Stats(),
		Decoder:    r.worker.Stats(),
	}
}

// Subscribe registers a detection subscriber. Each distinct new value is sent
// once; a subscriber whose buffer is full misses the value. After Close the
// returned channel is already closed.
func (r *Reader) Subscribe() (string, <-chan string) {
	id := uuid.NewString()
	ch := make(chan string, r.subBuffer)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed.Load() {
		close(ch)
		return id, ch
	}
	r.subs[id] = ch
	subscribersActive.Inc()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. It reports whether
// id was registered.
func (r *Reader) Unsubscribe(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.subs[id]
	if !ok {
		return false
	}
	delete(r.subs, id)
	close(ch)
	subscribersActive.Dec()
	return true
}

// SetFeedSink rebinds the raw feed display. The new sink is bound to the
// source immediately; nil unbinds.
func (r *Reader) SetFeedSink(s FeedSink) {
	r.mu.Lock()
	r.feed = s
	r.mu.Unlock()
	if s != nil {
		s.BindSource(r.src)
	}
}

// FeedSink returns the bound feed sink, if any.
func (r *Reader) FeedSink() FeedSink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.feed
}

// SetTextSink rebinds the text display; nil unbinds.
func (r *Reader) SetTextSink(s TextSink) {
	r.mu.Lock()
	r.text = s
	r.mu.Unlock()
}

// TextSink returns the bound text sink, if any.
func (r *Reader) TextSink() TextSink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}

// Tick runs one foreground step and returns the value it reported, if any.
// It never waits on the decode goroutine.
func (r *Reader) Tick() (string, bool) {
	if r.closed.Load() {
		return "", false
	}
	r.life.Advance(r.now())
	if r.life.Enabled() && r.driver.Tick() {
		framesDepositedTotal.Inc()
	}

	text, ok := r.results.Poll()
	if !ok {
		return "", false
	}
	r.notify(text)
	return text, true
}

func (r *Reader) notify(text string) {
	detectionsTotal.Inc()
	r.logger.Info("Code detected", "length", len(text))

	r.mu.Lock()
	for id, ch := range r.subs {
		select {
		case ch <- text:
		default:
			subscriberDropsTotal.Inc()
			r.logger.Warn("Subscriber is not keeping up, dropping detection", "subscriber", id)
		}
	}
	sink := r.text
	r.mu.Unlock()

	if sink != nil {
		sink.ShowText(text)
	}
}

// Run ticks at the configured interval until ctx is done or the reader is
// closed. It returns ErrClosed in the latter case.
func (r *Reader) Run(ctx context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.done:
			return ErrClosed
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Close stops the decode goroutine, waits for it to return and stops the
// frame source. An in-flight decode is allowed to finish. Close is idempotent.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.done)
		r.cancel()
		r.wg.Wait()

		r.mu.Lock()
		for id, ch := range r.subs {
			delete(r.subs, id)
			close(ch)
			subscribersActive.Dec()
		}
		r.mu.Unlock()

		if err := r.src.Stop(); err != nil {
			r.closeErr = err
			r.logger.Warn("Failed to stop frame source", "error", err)
		}
		r.logger.Debug("Reader closed")
	})
	return r.closeErr
}
