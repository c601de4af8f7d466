package source

import (
	"errors"
	"image"
	"sync"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/frame"
)

// Static is a camera pointed at a still scene: every LatestFrame call while
// playing is a fresh capture of the same pixels.
type Static struct {
	mu      sync.Mutex
	base    *frame.Frame
	seq     uint64
	playing bool
	stopped bool
	now     func() time.Time
}

// NewStatic returns a paused source showing img.
func NewStatic(img image.Image) (*Static, error) {
	if img == nil {
		return nil, &FrameError{Op: "static", Err: errors.New("nil image")}
	}
	return &Static{base: frame.FromImage(img, 0, time.Time{}), now: time.Now}, nil
}

// NewStaticFile loads path and returns a paused source showing it.
func NewStaticFile(path string) (*Static, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return NewStatic(img)
}

// Start implements Source.
func (s *Static) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	s.playing = true
	return nil
}

// Pause implements Source.
func (s *Static) Pause() error {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
	return nil
}

// Stop implements Source.
func (s *Static) Stop() error {
	s.mu.Lock()
	s.playing = false
	s.stopped = true
	s.mu.Unlock()
	return nil
}

// Dimensions implements Source.
func (s *Static) Dimensions() (int, int) {
	return s.base.Width, s.base.Height
}

// LatestFrame implements Source.
func (s *Static) LatestFrame() (*frame.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return nil, false
	}
	s.seq++
	return s.base.WithSeq(s.seq, s.now()), true
}
