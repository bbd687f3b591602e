package config

import "go.trai.ch/viva/internal/core/ports"

// NewLoaderWithDirs exposes newLoaderWithDirs for tests.
func NewLoaderWithDirs(logger ports.Logger, dirs Dirs, getenv func(string) string) *Loader {
	return newLoaderWithDirs(logger, dirs, getenv)
}
