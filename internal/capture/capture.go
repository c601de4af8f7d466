// Package capture moves frames from a frame source into the decode mailbox.
package capture

import (
	"sync"

	"github.com/MeKo-Tech/qrfeed/internal/frame"
	"github.com/MeKo-Tech/qrfeed/internal/mailbox"
	"github.com/MeKo-Tech/qrfeed/internal/source"
)

// Default requested resolution, used until the source reports its own.
const (
	DefaultWidth  = 512
	DefaultHeight = 512
)

// Options configures a Driver.
type Options struct {
	DefaultWidth  int
	DefaultHeight int
}

// Driver deposits the newest source frame into the mailbox once per tick.
// Tick and Refresh are called from the owner's foreground goroutine.
type Driver struct {
	src source.Source
	mb  *mailbox.Mailbox

	defaultW, defaultH int

	mu      sync.Mutex
	width   int
	height  int
	lastSeq uint64
	hasLast bool
}

// New returns a driver feeding mb from src.
func New(src source.Source, mb *mailbox.Mailbox, opts Options) *Driver {
	if opts.DefaultWidth <= 0 {
		opts.DefaultWidth = DefaultWidth
	}
	if opts.DefaultHeight <= 0 {
		opts.DefaultHeight = DefaultHeight
	}
	return &Driver{
		src:      src,
		mb:       mb,
		defaultW: opts.DefaultWidth,
		defaultH: opts.DefaultHeight,
		width:    opts.DefaultWidth,
		height:   opts.DefaultHeight,
	}
}

// Tick deposits the source's newest frame if the mailbox is empty, the source
// is ready and the frame has not been deposited before. It reports whether a
// frame was deposited.
func (d *Driver) Tick() bool {
	if !d.mb.Empty() {
		return false
	}
	f, ok := d.src.LatestFrame()
	if !ok || !f.Valid() {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasLast && f.Seq == d.lastSeq {
		return false
	}
	if !d.mb.TryPut(f) {
		return false
	}
	d.lastSeq, d.hasLast = f.Seq, true
	d.observeLocked(f)
	return true
}

// Refresh records the source's negotiated dimensions, if it reports any.
func (d *Driver) Refresh() {
	w, h := d.src.Dimensions()
	if w <= 0 || h <= 0 {
		return
	}
	d.mu.Lock()
	d.width, d.height = w, h
	d.mu.Unlock()
}

// Reset forgets the last deposited frame, so a restarted source may deliver
// its current capture again.
func (d *Driver) Reset() {
	d.mu.Lock()
	d.hasLast = false
	d.lastSeq = 0
	d.mu.Unlock()
}

// CurrentDimensions returns the resolution in use: the source's negotiated
// size when known, otherwise the requested default.
func (d *Driver) CurrentDimensions() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

// Source returns the wrapped frame source.
func (d *Driver) Source() source.Source {
	return d.src
}

func (d *Driver) observeLocked(f *frame.Frame) {
	if f.Width > 0 && f.Height > 0 {
		d.width, d.height = f.Width, f.Height
	}
}
