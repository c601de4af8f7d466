// Package source provides frame sources: the capability that stands in for a
// camera device. A source is started, paused and stopped by the reader
// lifecycle and polled for its newest frame by the capture driver.
package source

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/qrfeed/internal/frame"
)

// Source is a camera-like producer of frames.
type Source interface {
	// Start begins or resumes capture.
	Start() error
	// Pause suspends capture; Start resumes it.
	Pause() error
	// Stop releases the device. A stopped source cannot be restarted.
	Stop() error
	// Dimensions returns the negotiated resolution, or zeros if unknown.
	Dimensions() (width, height int)
	// LatestFrame returns the newest frame. It returns false while the
	// source is not ready (paused, warming up, nothing to show).
	LatestFrame() (*frame.Frame, bool)
}

var (
	// ErrStopped is returned when starting a stopped source.
	ErrStopped = errors.New("source: stopped")
	// ErrNoImages is returned when a directory holds no supported images.
	ErrNoImages = errors.New("source: no supported images")
)

// FrameError describes a failure to produce a frame from a file.
type FrameError struct {
	Op   string
	Path string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("source %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("source %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }
