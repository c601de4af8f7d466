package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrDecode is returned by FailingDecoder.
var ErrDecode = errors.New("testutil: decode failed")

// TextDecoder decodes frames produced by TextFrame.
type TextDecoder struct {
	calls atomic.Int64
}

// Decode implements barcode.Decoder.
func (d *TextDecoder) Decode(_ context.Context, pixels []byte, _, _ int) (string, error) {
	d.calls.Add(1)
	return textFromPixels(pixels), nil
}

// Calls returns the number of Decode calls.
func (d *TextDecoder) Calls() int64 { return d.calls.Load() }

// FailingDecoder always fails, optionally by panicking.
type FailingDecoder struct {
	Panic bool
	calls atomic.Int64
}

// Decode implements barcode.Decoder.
func (d *FailingDecoder) Decode(context.Context, []byte, int, int) (string, error) {
	d.calls.Add(1)
	if d.Panic {
		panic("testutil: decoder exploded")
	}
	return "", ErrDecode
}

// Calls returns the number of Decode calls.
func (d *FailingDecoder) Calls() int64 { return d.calls.Load() }

// BlockingDecoder blocks inside Decode until Release is called.
type BlockingDecoder struct {
	Text string

	entered chan struct{}
	release chan struct{}
	once    sync.Once
	done    atomic.Bool
}

// NewBlockingDecoder returns a decoder that blocks on its first call.
func NewBlockingDecoder(text string) *BlockingDecoder {
	return &BlockingDecoder{
		Text:    text,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

// Decode implements barcode.Decoder. It ignores ctx on purpose so tests can
// check that shutdown waits for an in-flight decode.
func (d *BlockingDecoder) Decode(context.Context, []byte, int, int) (string, error) {
	d.once.Do(func() { close(d.entered) })
	<-d.release
	d.done.Store(true)
	return d.Text, nil
}

// Entered is closed once Decode has been called.
func (d *BlockingDecoder) Entered() <-chan struct{} { return d.entered }

// Release unblocks Decode.
func (d *BlockingDecoder) Release() { close(d.release) }

// Finished reports whether a Decode call has returned.
func (d *BlockingDecoder) Finished() bool { return d.done.Load() }
