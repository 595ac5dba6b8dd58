package setup

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrar_RegisterPreservesOtherEntries(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "Claude", "claude_desktop_config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte(`{
  "theme": "dark",
  "mcpServers": {"other": {"command": "/usr/bin/other"}}
}`), 0o644))

	registrar, err := NewRegistrar(configPath)
	require.NoError(t, err)

	entry, err := registrar.Register("/opt/bin/mcp-server-lite", "/data/narrative")
	require.NoError(t, err)
	assert.Equal(t, "/data/narrative", entry.Env[DataDirEnv])

	var raw map[string]json.RawMessage
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"dark"`, string(raw["theme"]))

	cfg, err := registrar.Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.MCPServers, "other")
	assert.Equal(t, "/opt/bin/mcp-server-lite", cfg.MCPServers[ServerName].Command)
}

func TestRegistrar_MissingFile(t *testing.T) {
	registrar, err := NewRegistrar(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	cfg, err := registrar.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.MCPServers)

	removed, err := registrar.Unregister()
	require.NoError(t, err)
	assert.False(t, removed)

	status, err := registrar.Status()
	require.NoError(t, err)
	assert.False(t, status.Registered)
	assert.Contains(t, status.Issues, "server is not registered")
}

func TestRegistrar_InvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte("{broken"), 0o644))

	registrar, err := NewRegistrar(configPath)
	require.NoError(t, err)
	_, err = registrar.Load()
	assert.Error(t, err)
}

func TestRegistrar_Status(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "mcp-server-lite")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755))

	registrar, err := NewRegistrar(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	_, err = registrar.Register(binary, dir)
	require.NoError(t, err)

	status, err := registrar.Status()
	require.NoError(t, err)
	assert.True(t, status.Registered)
	assert.Equal(t, binary, status.Command)
	assert.Equal(t, dir, status.DataDir)
	assert.Empty(t, status.Issues)
	assert.Equal(t, []string{ServerName}, status.Servers)

	removed, err := registrar.Unregister()
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestCLI(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	var out bytes.Buffer
	cli := NewCLI(&out)
	cli.executable = func() (string, error) { return "/usr/local/bin/mcp-server-lite", nil }

	require.NoError(t, cli.Run([]string{"claude-desktop", "--config", configPath, "--data-dir", dir}))
	assert.Contains(t, out.String(), `Registered "nursing-narrative"`)
	assert.Contains(t, out.String(), "/usr/local/bin/mcp-server-lite")

	out.Reset()
	require.NoError(t, cli.Run([]string{"status", "--config", configPath}))
	assert.Contains(t, out.String(), "Registered:  true")

	out.Reset()
	require.NoError(t, cli.Run([]string{"remove", "--config", configPath}))
	assert.Contains(t, out.String(), "Removed")

	out.Reset()
	assert.Error(t, cli.Run([]string{"wizard"}))
	assert.Contains(t, out.String(), "Usage:")

	out.Reset()
	require.NoError(t, cli.Run(nil))
	assert.Contains(t, out.String(), "claude-desktop")
}
