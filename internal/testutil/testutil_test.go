package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFrameRoundTrip(t *testing.T) {
	d := &TextDecoder{}
	f := TextFrame("ABC", 3)
	require.True(t, f.Valid())

	got, err := d.Decode(context.Background(), f.Pixels, f.Width, f.Height)
	require.NoError(t, err)
	assert.Equal(t, "ABC", got)

	got, err = d.Decode(context.Background(), EmptyFrame(4).Pixels, 8, 8)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int64(2), d.Calls())
}

func TestQRFrameDimensions(t *testing.T) {
	f := QRFrame(t, "hello", 1)
	assert.Equal(t, DefaultQRSize, f.Width)
	assert.Equal(t, DefaultQRSize, f.Height)
	assert.True(t, f.Valid())
}

func TestFakeSource(t *testing.T) {
	s := NewFakeSource(640, 480)
	s.Show(TextFrame("x", 1))

	_, ok := s.LatestFrame()
	assert.False(t, ok, "paused source yields nothing")

	require.NoError(t, s.Start())
	f, ok := s.LatestFrame()
	require.True(t, ok)
	assert.Equal(t, uint64(1), f.Seq)

	require.NoError(t, s.Pause())
	assert.False(t, s.Playing())
	starts, pauses, stops := s.Counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, pauses)
	assert.Equal(t, 0, stops)
}

func TestWaitFor(t *testing.T) {
	n := 0
	require.NoError(t, WaitFor(time.Second, func() bool { n++; return n > 3 }))
	assert.ErrorIs(t, WaitFor(5*time.Millisecond, func() bool { return false }), ErrTimeout)
}

func TestClock(t *testing.T) {
	c := NewClock()
	start := c.Now()
	c.Advance(time.Minute)
	assert.Equal(t, time.Minute, c.Now().Sub(start))
}
