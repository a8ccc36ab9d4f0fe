package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oltd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("OLT_LAB_PASSWORD", "s3cret")

	path := writeConfig(t, `
listen: ":9090"
log:
  level: debug
session:
  connectTimeout: 45s
  commandTimeout: 20
  pageLimit: 50
history:
  path: /tmp/oltd.db
devices:
  lab1:
    host: 10.0.0.5
    username: admin
    password: ${OLT_LAB_PASSWORD}
    enablePassword: ${OLT_LAB_PASSWORD}
    transport: ssh
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 45*time.Second, cfg.Session.ConnectTimeout.Duration)
	assert.Equal(t, 20*time.Second, cfg.Session.CommandTimeout.Duration)
	assert.Equal(t, 50, cfg.Session.PageLimit)
	assert.Equal(t, "/tmp/oltd.db", cfg.History.Path)

	lab, ok := cfg.Devices["lab1"]
	require.True(t, ok)
	assert.Equal(t, "10.0.0.5", lab.Host)
	assert.Equal(t, "s3cret", lab.Password)
	assert.Equal(t, "ssh", lab.Transport)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout.Duration)
	assert.Zero(t, cfg.Session.ConnectTimeout.Duration, "engine default applies")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, "session:\n  connectTimeout: soon\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "bad duration")
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "listen: [unclosed\n")
	_, err := Load(path)
	assert.Error(t, err)
}
