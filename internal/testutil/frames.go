package testutil

import (
	"bytes"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/frame"
)

const textFrameEdge = 8

// TextFrame returns a small frame whose pixel buffer starts with text. It is
// understood by TextDecoder and lets tests skip real barcode rendering.
func TextFrame(text string, seq uint64) *frame.Frame {
	pix := make([]byte, textFrameEdge*textFrameEdge*frame.BytesPerPixel)
	copy(pix, text)
	return &frame.Frame{
		Pixels:    pix,
		Width:     textFrameEdge,
		Height:    textFrameEdge,
		Timestamp: time.Now(),
		Seq:       seq,
	}
}

// EmptyFrame returns a frame that TextDecoder decodes to "".
func EmptyFrame(seq uint64) *frame.Frame {
	return TextFrame("", seq)
}

// textFromPixels extracts the NUL-terminated prefix written by TextFrame.
func textFromPixels(pix []byte) string {
	if i := bytes.IndexByte(pix, 0); i >= 0 {
		return string(pix[:i])
	}
	return string(pix)
}
