package domain

import (
	"runtime"
	"time"
)

const (
	// DefaultChannelAlias is the base URL short channel names are resolved against.
	DefaultChannelAlias = "https://conda.anaconda.org"

	// DefaultRepodataTTL is how long fetched channel metadata is reused.
	DefaultRepodataTTL = time.Hour
)

// Config is the resolved user configuration together with the OS base directories.
type Config struct {
	// DefaultChannels are used when a command is given no channels.
	DefaultChannels []string
	// Concurrency bounds parallel package downloads.
	Concurrency int
	// ChannelAlias is prefixed to channel names that are not URLs.
	ChannelAlias string
	// Platform is the conda subdir to resolve for, e.g. linux-64.
	Platform string
	// RepodataTTL is how long cached channel metadata stays fresh.
	RepodataTTL time.Duration

	// DataDir holds alias target prefixes.
	DataDir string
	// ConfigDir holds alias spec files and the config file.
	ConfigDir string
	// CacheDir holds the package store and metadata cache.
	CacheDir string
	// ConfigFile is the path the configuration was read from.
	ConfigFile string
}

// DefaultConcurrency returns the default download concurrency.
func DefaultConcurrency() int {
	return runtime.NumCPU()
}

// CurrentPlatform returns the conda subdir for the running OS and architecture.
func CurrentPlatform() string {
	goos := runtime.GOOS
	goarch := runtime.GOARCH

	switch {
	case goos == "linux" && goarch == "amd64":
		return "linux-64"
	case goos == "linux" && goarch == "arm64":
		return "linux-aarch64"
	case goos == "linux" && goarch == "ppc64le":
		return "linux-ppc64le"
	case goos == "darwin" && goarch == "amd64":
		return "osx-64"
	case goos == "darwin" && goarch == "arm64":
		return "osx-arm64"
	case goos == "windows" && goarch == "amd64":
		return "win-64"
	case goos == "windows" && goarch == "arm64":
		return "win-arm64"
	default:
		return "linux-64"
	}
}
