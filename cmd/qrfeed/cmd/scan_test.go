package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/config"
	"github.com/MeKo-Tech/qrfeed/internal/display"
	"github.com/MeKo-Tech/qrfeed/internal/source"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanCommand(t *testing.T) {
	assert.Equal(t, "scan", scanCmd.Use)
	assert.NotEmpty(t, scanCmd.Short)

	for _, name := range []string{"image", "dir", "frame-interval", "loop", "watch", "formats",
		"try-harder", "settle-delay", "idle-interval", "format", "once", "timeout"} {
		assert.NotNil(t, scanCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestApplyPipelineFlags(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	addPipelineFlags(c.Flags())
	require.NoError(t, c.ParseFlags([]string{
		"--dir", "frames",
		"--frame-interval", "250ms",
		"--loop=false",
		"--watch",
		"--formats", "qr,aztec",
		"--try-harder",
		"--settle-delay", "40ms",
		"--idle-interval", "5ms",
	}))

	cfg := config.DefaultConfig()
	cfg.Source.Image = "keep.png"
	applyPipelineFlags(c, &cfg)

	assert.Equal(t, "keep.png", cfg.Source.Image, "unset flags leave the config alone")
	assert.Equal(t, "frames", cfg.Source.Dir)
	assert.Equal(t, 250*time.Millisecond, cfg.Source.FrameInterval)
	assert.False(t, cfg.Source.Loop)
	assert.True(t, cfg.Source.Watch)
	assert.Equal(t, []string{"qr", "aztec"}, cfg.Decoder.Formats)
	assert.True(t, cfg.Decoder.TryHarder)
	assert.Equal(t, 40*time.Millisecond, cfg.Reader.SettleDelay)
	assert.Equal(t, 5*time.Millisecond, cfg.Reader.IdleInterval)
}

func TestNewSource(t *testing.T) {
	dir := t.TempDir()
	img := writeBlank(t, dir, "blank.png")

	t.Run("image wins over dir", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Source.Image = img
		cfg.Source.Dir = dir
		src, err := newSource(&cfg)
		require.NoError(t, err)
		assert.IsType(t, &source.Static{}, src)
	})

	t.Run("dir", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Source.Dir = dir
		src, err := newSource(&cfg)
		require.NoError(t, err)
		assert.IsType(t, &source.Dir{}, src)
	})

	t.Run("none", func(t *testing.T) {
		cfg := config.DefaultConfig()
		_, err := newSource(&cfg)
		assert.ErrorIs(t, err, errNoSource)
	})
}

func TestScanRequiresSource(t *testing.T) {
	isolate(t)
	_, err := execute(t, "scan", "--timeout", "10ms")
	assert.ErrorIs(t, err, errNoSource)
}

func TestScanRejectsUnknownFormat(t *testing.T) {
	dir := isolate(t)
	img := writeBlank(t, dir, "blank.png")

	_, err := execute(t, "scan", "--image", img, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestScanMissingImage(t *testing.T) {
	isolate(t)
	_, err := execute(t, "scan", "--image", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestScanOnceTimesOutWithoutCode(t *testing.T) {
	dir := isolate(t)
	img := writeBlank(t, dir, "blank.png")

	out, err := execute(t, "scan", "--image", img, "--once", "--timeout", "200ms", "--idle-interval", "5ms")
	require.ErrorIs(t, err, errNoDetection)
	assert.Empty(t, out)
}

func TestScanOnceDetectsCode(t *testing.T) {
	if testing.Short() {
		t.Skip("decodes a real QR code")
	}
	dir := isolate(t)
	img := writeQR(t, dir, "code.png", "https://example.com/qrfeed")

	out, err := execute(t, "scan", "--image", img, "--once", "--timeout", "10s",
		"--idle-interval", "5ms", "--format", display.FormatJSON)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)

	var rec display.Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "https://example.com/qrfeed", rec.Text)
	assert.Equal(t, 1, rec.Seq)
}

func TestScanDirectoryReportsEachCodeOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("decodes real QR codes")
	}
	dir := isolate(t)
	frames := filepath.Join(dir, "frames")
	require.NoError(t, os.MkdirAll(frames, 0o755))
	writeQR(t, frames, "01.png", "first")
	writeQR(t, frames, "02.png", "second")

	out, err := execute(t, "scan", "--dir", frames, "--loop=false",
		"--frame-interval", "500ms", "--settle-delay", "0s", "--idle-interval", "5ms", "--timeout", "2s")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "first"))
	assert.Equal(t, 1, strings.Count(out, "second"))
}
