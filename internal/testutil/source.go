package testutil

import (
	"sync"

	"github.com/MeKo-Tech/qrfeed/internal/frame"
)

// FakeSource is a frame source whose current frame is set by the test.
type FakeSource struct {
	mu       sync.Mutex
	playing  bool
	current  *frame.Frame
	width    int
	height   int
	starts   int
	pauses   int
	stops    int
	StartErr error
}

// NewFakeSource returns a paused source reporting the given dimensions.
func NewFakeSource(width, height int) *FakeSource {
	return &FakeSource{width: width, height: height}
}

// Start implements source.Source.
func (s *FakeSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if s.StartErr != nil {
		return s.StartErr
	}
	s.playing = true
	return nil
}

// Pause implements source.Source.
func (s *FakeSource) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauses++
	s.playing = false
	return nil
}

// Stop implements source.Source.
func (s *FakeSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	s.playing = false
	return nil
}

// Dimensions implements source.Source.
func (s *FakeSource) Dimensions() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// LatestFrame implements source.Source.
func (s *FakeSource) LatestFrame() (*frame.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing || s.current == nil {
		return nil, false
	}
	return s.current, true
}

// Show makes f the frame returned by LatestFrame.
func (s *FakeSource) Show(f *frame.Frame) {
	s.mu.Lock()
	s.current = f
	s.mu.Unlock()
}

// SetDimensions changes the reported dimensions.
func (s *FakeSource) SetDimensions(width, height int) {
	s.mu.Lock()
	s.width, s.height = width, height
	s.mu.Unlock()
}

// Playing reports whether the source has been started and not paused.
func (s *FakeSource) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Counts returns how often Start, Pause and Stop were called.
func (s *FakeSource) Counts() (starts, pauses, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.pauses, s.stops
}
