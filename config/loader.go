package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	configName = "navimpd"
	envPrefix  = "NAVIMPD"
)

// Loader reads the configuration through a viper instance. The zero value is
// not usable; call NewLoader.
type Loader struct {
	v  *viper.Viper
	fs afero.Fs
}

// NewLoader creates a loader. fs is used for validation and file writes; nil
// means the OS filesystem.
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(configName)
	v.SetConfigType("toml")
	v.AddConfigPath("$HOME/.config/")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("server.address", defaults.Server.Address)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.password", "")
	v.SetDefault("server.directory", "")
	v.SetDefault("server.timeout", defaults.Server.Timeout)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("ui.max_column_width", defaults.UI.MaxColumnWidth)
	v.SetDefault("ui.history_size", defaults.UI.HistorySize)

	return &Loader{v: v, fs: fs}
}

// Viper exposes the underlying instance so command line flags can be bound
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// SetConfigFile pins an explicit config file instead of the search paths
func (l *Loader) SetConfigFile(path string) {
	l.v.SetConfigFile(path)
}

// Load reads the config file if one exists and returns the decoded Config.
// A missing file is not an error: defaults and environment still apply.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := l.v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(l.fs); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// ConfigFile is the file that was read, empty when none was found
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch reloads the config whenever the file changes and passes the new value
// to onChange. Invalid edits are reported through onError and skipped.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// WriteDefault writes the default configuration as TOML to path. An existing
// file is left alone unless overwrite is set.
func WriteDefault(fs afero.Fs, path string, overwrite bool) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if exists && !overwrite {
		return fmt.Errorf("config file %s already exists", path)
	}
	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

// DefaultPath is where WriteDefault puts the file when no path is given
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configName + ".toml"
	}
	return filepath.Join(home, ".config", configName+".toml")
}
