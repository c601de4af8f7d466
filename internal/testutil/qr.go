package testutil

import (
	"image"
	"testing"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/frame"
	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
)

// DefaultQRSize is the edge length of generated QR images.
const DefaultQRSize = 256

// QRImage renders text as a QR code of size x size pixels, quiet zone included.
func QRImage(t testing.TB, text string, size int) image.Image {
	t.Helper()
	img, err := EncodeQR(text, size)
	require.NoError(t, err)
	return img
}

// EncodeQR renders text as a QR code without a testing handle.
func EncodeQR(text string, size int) (image.Image, error) {
	return qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
}

// QRFrame renders text as a QR code frame with the given sequence number.
func QRFrame(t testing.TB, text string, seq uint64) *frame.Frame {
	t.Helper()
	return frame.FromImage(QRImage(t, text, DefaultQRSize), seq, time.Now())
}

// BlankImage returns a white image without any code.
func BlankImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}
