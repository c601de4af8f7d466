// Package display renders detected codes on a terminal or any other writer.
package display

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
	"unicode"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("display: unknown output format")

const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
)

// Record is one detection as written in json and yaml output.
type Record struct {
	Seq  int       `json:"seq" yaml:"seq"`
	Text string    `json:"text" yaml:"text"`
	Time time.Time `json:"time" yaml:"time"`
}

// Terminal writes each detection it is shown. It implements reader.TextSink.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	format string
	color  bool
	count  int
	now    func() time.Time
	logger *slog.Logger
}

// NewTerminal returns a sink writing to w in the given format. Text output is
// colored when w is a terminal.
func NewTerminal(w io.Writer, format string) (*Terminal, error) {
	if format == "" {
		format = FormatText
	}
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	return &Terminal{
		w:      w,
		format: format,
		color:  IsTerminal(w),
		now:    time.Now,
		logger: slog.Default(),
	}, nil
}

// ValidateFormat checks format against Formats.
func ValidateFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// IsTerminal reports whether w is a character device such as a tty.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ShowText writes one detection. Write errors are logged, not returned.
func (t *Terminal) ShowText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count++
	rec := Record{Seq: t.count, Text: text, Time: t.now()}
	if err := t.write(rec); err != nil {
		t.logger.Warn("Failed to write detection", "format", t.format, "error", err)
	}
}

// Count returns the number of detections shown so far.
func (t *Terminal) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *Terminal) write(rec Record) error {
	switch t.format {
	case FormatJSON:
		return json.NewEncoder(t.w).Encode(rec)
	case FormatYAML:
		bts, err := yaml.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		if rec.Seq > 1 {
			if _, err := io.WriteString(t.w, "---\n"); err != nil {
				return err
			}
		}
		_, err = t.w.Write(bts)
		return err
	default:
		text := Sanitize(rec.Text)
		if t.color {
			_, err := fmt.Fprintf(t.w, "%s[%d]%s %s%s%s\n", colorGray, rec.Seq, colorReset, colorCyan, text, colorReset)
			return err
		}
		_, err := fmt.Fprintf(t.w, "[%d] %s\n", rec.Seq, text)
		return err
	}
}

// Sanitize makes decoded payloads safe to print on one line: it normalizes
// to NFC and removes control characters, so a payload cannot move the cursor
// or inject escape sequences.
func Sanitize(s string) string {
	t := transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cc)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
