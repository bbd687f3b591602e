// Package config provides the configuration loader for viva.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/adrg/xdg"
	vivafs "go.trai.ch/viva/internal/adapters/fs"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigFile overrides the configuration file path.
	EnvConfigFile = "VIVA_CONFIG"
	// EnvDefaultChannels overrides default_channels with a comma separated list.
	EnvDefaultChannels = "VIVA_DEFAULT_CHANNELS"
)

// Dirs are the OS base directories viva stores its data under.
type Dirs struct {
	DataHome   string
	ConfigHome string
	CacheHome  string
}

// XDGDirs returns the base directories of the current user.
func XDGDirs() Dirs {
	return Dirs{
		DataHome:   xdg.DataHome,
		ConfigHome: xdg.ConfigHome,
		CacheHome:  xdg.CacheHome,
	}
}

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	dirs   Dirs
	getenv func(string) string
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return newLoaderWithDirs(logger, XDGDirs(), os.Getenv)
}

func newLoaderWithDirs(logger ports.Logger, dirs Dirs, getenv func(string) string) *Loader {
	return &Loader{
		Logger: logger,
		dirs:   dirs,
		getenv: getenv,
	}
}

// Defaults returns the configuration written on first run.
func Defaults() Vivafile {
	return Vivafile{
		DefaultChannels: []string{domain.DefaultChannel},
	}
}

// Load reads the configuration file, creating it with defaults when it does not exist.
func (l *Loader) Load() (*domain.Config, error) {
	path := l.getenv(EnvConfigFile)
	if path == "" {
		path = domain.ConfigFilePath(l.dirs.ConfigHome)
	}

	file, err := l.readOrCreate(path)
	if err != nil {
		return nil, err
	}

	cfg, err := l.resolve(file)
	if err != nil {
		return nil, zerr.With(err, "config_file", path)
	}
	cfg.ConfigFile = path
	return cfg, nil
}

func (l *Loader) readOrCreate(path string) (Vivafile, error) {
	//nolint:gosec // Path is the user's configuration file
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		defaults := Defaults()
		if writeErr := writeDefaults(path, defaults); writeErr != nil {
			l.Logger.Warn(fmt.Sprintf("could not write default configuration to %s: %v", path, writeErr))
		}
		return defaults, nil
	}
	if err != nil {
		return Vivafile{}, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "config_file", path)
	}

	var file Vivafile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Vivafile{}, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "config_file", path)
	}
	return file, nil
}

func writeDefaults(path string, defaults Vivafile) error {
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigWriteFailed.Error())
	}
	if err := vivafs.AtomicWriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrConfigWriteFailed.Error())
	}
	return nil
}

func (l *Loader) resolve(file Vivafile) (*domain.Config, error) {
	cfg := &domain.Config{
		DefaultChannels: file.DefaultChannels,
		Concurrency:     file.Concurrency,
		ChannelAlias:    strings.TrimRight(file.ChannelAlias, "/"),
		Platform:        file.Platform,
		RepodataTTL:     domain.DefaultRepodataTTL,
		DataDir:         l.dirs.DataHome,
		ConfigDir:       l.dirs.ConfigHome,
		CacheDir:        l.dirs.CacheHome,
	}

	if env := l.getenv(EnvDefaultChannels); env != "" {
		cfg.DefaultChannels = splitList(env)
	}
	if len(cfg.DefaultChannels) == 0 {
		cfg.DefaultChannels = []string{domain.DefaultChannel}
	}

	switch {
	case cfg.Concurrency < 0:
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "concurrency must not be negative"), "concurrency", cfg.Concurrency)
	case cfg.Concurrency == 0:
		cfg.Concurrency = domain.DefaultConcurrency()
	}

	if cfg.ChannelAlias == "" {
		cfg.ChannelAlias = domain.DefaultChannelAlias
	}
	if cfg.Platform == "" {
		cfg.Platform = domain.CurrentPlatform()
	}

	if file.RepodataTTL != "" {
		ttl, err := time.ParseDuration(file.RepodataTTL)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "invalid repodata_ttl"), "repodata_ttl", file.RepodataTTL)
		}
		cfg.RepodataTTL = ttl
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
