package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSettings(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/srv/music", 0o755))

	cfg, err := FromSettings(map[string]any{
		"address":   "10.0.0.5",
		"port":      "6601",
		"directory": "/srv/music/",
		"timeout":   "3s",
	}, fs)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", cfg.Server.Address)
	assert.Equal(t, 6601, cfg.Server.Port)
	assert.Equal(t, "/srv/music", cfg.Server.Directory)
	assert.Equal(t, 3*time.Second, cfg.Server.Timeout)
}

func TestFromSettingsDefaults(t *testing.T) {
	cfg, err := FromSettings(map[string]any{}, afero.NewMemMapFs())
	require.NoError(t, err)
	assert.Equal(t, DefaultAddress, cfg.Server.Address)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultTimeout, cfg.Server.Timeout)
	assert.Empty(t, cfg.Server.Directory)
}

func TestValidate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/file", []byte("x"), 0o644))

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"empty address", func(c *Config) { c.Server.Address = "" }, true},
		{"missing directory", func(c *Config) { c.Server.Directory = "/nope" }, true},
		{"directory is a file", func(c *Config) { c.Server.Directory = "/file" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate(fs)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoaderReadsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/music", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/etc/navimpd.toml", []byte(`
[server]
address = "mpd.local"
port = 6700
directory = "/music/"
timeout = "5s"

[log]
level = "debug"
`), 0o644))

	l := NewLoader(fs)
	l.SetConfigFile("/etc/navimpd.toml")
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "mpd.local", cfg.Server.Address)
	assert.Equal(t, 6700, cfg.Server.Port)
	assert.Equal(t, "/music", cfg.Server.Directory)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 40, cfg.UI.MaxColumnWidth)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteDefault(fs, "/home/u/.config/navimpd.toml", false))
	assert.Error(t, WriteDefault(fs, "/home/u/.config/navimpd.toml", false))
	require.NoError(t, WriteDefault(fs, "/home/u/.config/navimpd.toml", true))

	l := NewLoader(fs)
	l.SetConfigFile("/home/u/.config/navimpd.toml")
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}
