// Package frame defines the captured image unit handed from the capture stage
// to the decode stage.
package frame

import (
	"image"
	"time"

	"github.com/disintegration/imaging"
)

// BytesPerPixel is the size of one pixel in Frame.Pixels (non-premultiplied RGBA).
const BytesPerPixel = 4

// Frame is one captured image. A Frame is immutable once published: neither
// the producer nor the consumer may modify Pixels after it leaves the source.
type Frame struct {
	// Pixels holds Width*Height RGBA pixels, row-major, stride Width*4.
	Pixels []byte

	Width  int
	Height int

	// Timestamp is the capture time reported by the source.
	Timestamp time.Time

	// Seq is assigned by the source and increases with every new capture.
	Seq uint64
}

// FromImage copies img into a new Frame.
func FromImage(img image.Image, seq uint64, ts time.Time) *Frame {
	if img == nil {
		return nil
	}
	n := imaging.Clone(img)
	b := n.Bounds()
	return &Frame{
		Pixels:    n.Pix,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Timestamp: ts,
		Seq:       seq,
	}
}

// Image exposes the pixel buffer as an image without copying.
func (f *Frame) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    f.Pixels,
		Stride: f.Width * BytesPerPixel,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Valid reports whether the buffer is large enough for the declared dimensions.
func (f *Frame) Valid() bool {
	if f == nil || f.Width <= 0 || f.Height <= 0 {
		return false
	}
	return len(f.Pixels) >= f.Width*f.Height*BytesPerPixel
}

// WithSeq returns a shallow copy carrying a new sequence number and timestamp.
// The pixel buffer is shared, which is safe because frames are immutable.
func (f *Frame) WithSeq(seq uint64, ts time.Time) *Frame {
	c := *f
	c.Seq = seq
	c.Timestamp = ts
	return &c
}
