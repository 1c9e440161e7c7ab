package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
)

// Config represents the complete application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server" toml:"server"`
	Log    LogConfig    `mapstructure:"log" toml:"log"`
	UI     UIConfig     `mapstructure:"ui" toml:"ui"`
}

// ServerConfig contains the music server connection settings
type ServerConfig struct {
	Address   string        `mapstructure:"address" toml:"address"`
	Port      int           `mapstructure:"port" toml:"port"`
	Password  string        `mapstructure:"password" toml:"password,omitempty"`
	Directory string        `mapstructure:"directory" toml:"directory"` // library root, used to resolve song paths
	Timeout   time.Duration `mapstructure:"timeout" toml:"timeout"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
}

// UIConfig contains command line output settings
type UIConfig struct {
	MaxColumnWidth int `mapstructure:"max_column_width" toml:"max_column_width"`
	HistorySize    int `mapstructure:"history_size" toml:"history_size"`
}

const (
	DefaultAddress = "127.0.0.1"
	DefaultPort    = 6600
	DefaultTimeout = 15 * time.Second
)

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: DefaultAddress,
			Port:    DefaultPort,
			Timeout: DefaultTimeout,
		},
		Log: LogConfig{
			Level: "warn",
		},
		UI: UIConfig{
			MaxColumnWidth: 40,
			HistorySize:    10,
		},
	}
}

// Normalize trims the library root and fills zero values from the defaults
func (c *Config) Normalize() {
	defaults := DefaultConfig()
	c.Server.Address = strings.TrimSpace(c.Server.Address)
	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = defaults.Server.Timeout
	}
	if c.Server.Directory != "" && c.Server.Directory != "/" {
		c.Server.Directory = strings.TrimRight(c.Server.Directory, "/")
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// Validate checks the configuration. fs is used to check the library root;
// a nil fs uses the OS filesystem.
func (c *Config) Validate(fs afero.Fs) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative")
	}
	if c.Server.Directory != "" {
		ok, err := afero.DirExists(fs, c.Server.Directory)
		if err != nil {
			return fmt.Errorf("server.directory: %w", err)
		}
		if !ok {
			return fmt.Errorf("server.directory %q is not a directory: %w", c.Server.Directory, os.ErrNotExist)
		}
	}
	return nil
}

// FromSettings builds a validated Config from a loose settings map holding
// "address", "port" and "directory" (plus optional "password" and "timeout"),
// the shape embedders typically keep in their preferences.
func FromSettings(settings map[string]any, fs afero.Fs) (*Config, error) {
	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg.Server,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build settings decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(fs); err != nil {
		return nil, err
	}
	return cfg, nil
}
