package display

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func fixedTerminal(t *testing.T, format string) (*Terminal, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	term, err := NewTerminal(&buf, format)
	require.NoError(t, err)
	term.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return term, &buf
}

func TestNewTerminal_Formats(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"", false},
		{FormatText, false},
		{FormatJSON, false},
		{FormatYAML, false},
		{"csv", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := NewTerminal(&bytes.Buffer{}, tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTerminal_Text(t *testing.T) {
	term, buf := fixedTerminal(t, FormatText)
	term.ShowText("ABC")
	term.ShowText("line1\nline2\x1b[2J")

	assert.Equal(t, "[1] ABC\n[2] line1line2[2J\n", buf.String())
	assert.Equal(t, 2, term.Count())
}

func TestTerminal_JSON(t *testing.T) {
	term, buf := fixedTerminal(t, FormatJSON)
	term.ShowText("ABC")
	term.ShowText("a\nb")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, 2, rec.Seq)
	assert.Equal(t, "a\nb", rec.Text, "json keeps the raw payload")
}

func TestTerminal_YAML(t *testing.T) {
	term, buf := fixedTerminal(t, FormatYAML)
	term.ShowText("ABC")
	term.ShowText("DEF")

	docs := strings.Split(buf.String(), "---\n")
	require.Len(t, docs, 2)

	var rec Record
	require.NoError(t, yaml.Unmarshal([]byte(docs[1]), &rec))
	assert.Equal(t, "DEF", rec.Text)
	assert.Equal(t, 2, rec.Seq)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "https://example.com", "https://example.com"},
		{"control", "a\tb\r\nc\x00", "abc"},
		{"escape", "\x1b[31mred", "[31mred"},
		{"nfc", "e\u0301", "\u00e9"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}
