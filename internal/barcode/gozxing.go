package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"

	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

const bytesPerPixel = 4

// ZXing decodes frames with gozxing. Readers are tried in the configured
// order and the first hit wins. A ZXing value is used by a single goroutine.
type ZXing struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewZXing builds a decoder for the given options.
func NewZXing(opts Options) (*ZXing, error) {
	formats := opts.Formats
	if len(formats) == 0 {
		formats = DefaultOptions().Formats
	}

	readers := make([]gozxing.Reader, 0, len(formats))
	for _, f := range formats {
		r, err := newReader(f)
		if err != nil {
			return nil, err
		}
		readers = append(readers, r)
	}

	hints := make(map[gozxing.DecodeHintType]interface{})
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	return &ZXing{readers: readers, hints: hints}, nil
}

// Decode implements Decoder. pixels are non-premultiplied RGBA, stride width*4.
func (z *ZXing) Decode(ctx context.Context, pixels []byte, width, height int) (string, error) {
	if width <= 0 || height <= 0 || len(pixels) < width*height*bytesPerPixel {
		return "", fmt.Errorf("%w: %d bytes for %dx%d", ErrMalformedFrame, len(pixels), width, height)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img := &image.NRGBA{
		Pix:    pixels,
		Stride: width * bytesPerPixel,
		Rect:   image.Rect(0, 0, width, height),
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize frame: %w", err)
	}

	var lastErr error
	for _, r := range z.readers {
		res, err := r.Decode(bmp, z.hints)
		r.Reset()
		if err == nil && res != nil {
			return res.GetText(), nil
		}
		if err != nil && !isNotFound(err) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", nil
}

func isNotFound(err error) bool {
	var nf gozxing.NotFoundException
	return errors.As(err, &nf)
}

func newReader(f Format) (gozxing.Reader, error) {
	switch f {
	case FormatQR:
		return qrcode.NewQRCodeReader(), nil
	case FormatDataMatrix:
		return datamatrix.NewDataMatrixReader(), nil
	case FormatAztec:
		return aztec.NewAztecReader(), nil
	case FormatCode128:
		return oned.NewCode128Reader(), nil
	case FormatCode39:
		return oned.NewCode39Reader(), nil
	case FormatEAN8:
		return oned.NewEAN8Reader(), nil
	case FormatEAN13:
		return oned.NewEAN13Reader(), nil
	case FormatUPCA:
		return oned.NewUPCAReader(), nil
	case FormatUPCE:
		return oned.NewUPCEReader(), nil
	case FormatITF:
		return oned.NewITFReader(), nil
	case FormatCodabar:
		return oned.NewCodaBarReader(), nil
	default:
		return nil, fmt.Errorf("unsupported barcode format: %s", f)
	}
}
