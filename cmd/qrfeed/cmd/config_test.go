package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigInit(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "qrfeed.yaml")

	data, err := os.ReadFile(filepath.Join(dir, "qrfeed.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "idle_interval")

	_, err = execute(t, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "config", "init", "--force")
	require.NoError(t, err)
}

func TestConfigInitCustomPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")

	_, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestConfigShow(t *testing.T) {
	isolate(t)
	t.Setenv("QRFEED_SERVER_PORT", "9191")

	out, err := execute(t, "config", "show")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	server, ok := got["server"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 9191, server["port"])

	rdr, ok := got["reader"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "500ms", rdr["settle_delay"])
}
