package frame

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 14, 23))
	img.Set(10, 20, color.RGBA{R: 255, A: 255})
	ts := time.Unix(100, 0)

	f := FromImage(img, 7, ts)
	require.NotNil(t, f)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 3, f.Height)
	assert.Equal(t, uint64(7), f.Seq)
	assert.Equal(t, ts, f.Timestamp)
	assert.Len(t, f.Pixels, 4*3*BytesPerPixel)
	assert.True(t, f.Valid())

	// Origin is normalized to (0,0).
	r, g, b, a := f.Image().At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestFromImage_Nil(t *testing.T) {
	assert.Nil(t, FromImage(nil, 1, time.Now()))
}

func TestFrameValid(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
		want  bool
	}{
		{"nil frame", nil, false},
		{"zero width", &Frame{Width: 0, Height: 2, Pixels: make([]byte, 8)}, false},
		{"short buffer", &Frame{Width: 2, Height: 2, Pixels: make([]byte, 15)}, false},
		{"exact buffer", &Frame{Width: 2, Height: 2, Pixels: make([]byte, 16)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.frame.Valid())
		})
	}
}

func TestWithSeq_SharesPixels(t *testing.T) {
	f := &Frame{Width: 1, Height: 1, Pixels: []byte{1, 2, 3, 4}, Seq: 1}
	g := f.WithSeq(2, time.Unix(5, 0))

	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, uint64(2), g.Seq)
	assert.Same(t, &f.Pixels[0], &g.Pixels[0])
}
