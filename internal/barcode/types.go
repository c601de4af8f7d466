package barcode

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedFrame is returned when the pixel buffer does not match the
// declared dimensions.
var ErrMalformedFrame = errors.New("barcode: malformed frame buffer")

// Format represents a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatQR
	FormatDataMatrix
	FormatAztec
	FormatCode128
	FormatCode39
	FormatEAN8
	FormatEAN13
	FormatUPCA
	FormatUPCE
	FormatITF
	FormatCodabar
)

// Options controls decoding behavior.
type Options struct {
	// Formats constrains the set of symbologies to search. Empty means QR only.
	Formats []Format

	// TryHarder enables a more exhaustive search (slower but more robust).
	TryHarder bool
}

// DefaultOptions returns QR-only decoding.
func DefaultOptions() Options {
	return Options{Formats: []Format{FormatQR}}
}

// Decoder searches a frame buffer for a code.
//
// Decode returns the decoded text, or "" with a nil error when no code is
// present. A non-nil error means the frame could not be processed.
type Decoder interface {
	Decode(ctx context.Context, pixels []byte, width, height int) (string, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, pixels []byte, width, height int) (string, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, pixels []byte, width, height int) (string, error) {
	return f(ctx, pixels, width, height)
}

// ParseFormat maps a symbology name to a Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "qr", "qrcode", "qr-code":
		return FormatQR, true
	case "datamatrix", "data-matrix":
		return FormatDataMatrix, true
	case "aztec":
		return FormatAztec, true
	case "code128", "code-128":
		return FormatCode128, true
	case "code39", "code-39":
		return FormatCode39, true
	case "ean8", "ean-8":
		return FormatEAN8, true
	case "ean13", "ean-13":
		return FormatEAN13, true
	case "upca", "upc-a":
		return FormatUPCA, true
	case "upce", "upc-e":
		return FormatUPCE, true
	case "itf", "interleaved2of5", "i2/5":
		return FormatITF, true
	case "codabar":
		return FormatCodabar, true
	default:
		return FormatUnknown, false
	}
}

// ParseFormats maps a list of names, failing on the first unknown one.
func ParseFormats(names []string) ([]Format, error) {
	out := make([]Format, 0, len(names))
	for _, n := range names {
		f, ok := ParseFormat(n)
		if !ok {
			return nil, fmt.Errorf("unknown barcode format: %q", n)
		}
		out = append(out, f)
	}
	return out, nil
}

func (f Format) String() string {
	switch f {
	case FormatQR:
		return "qr"
	case FormatDataMatrix:
		return "datamatrix"
	case FormatAztec:
		return "aztec"
	case FormatCode128:
		return "code128"
	case FormatCode39:
		return "code39"
	case FormatEAN8:
		return "ean8"
	case FormatEAN13:
		return "ean13"
	case FormatUPCA:
		return "upca"
	case FormatUPCE:
		return "upce"
	case FormatITF:
		return "itf"
	case FormatCodabar:
		return "codabar"
	default:
		return "unknown"
	}
}
