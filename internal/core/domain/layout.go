package domain

import (
	"path/filepath"
	"runtime"
)

const (
	// AppName is the directory name used under every OS base directory.
	AppName = "viva"

	// EnvsDirName is the name of the directory holding alias environments and alias spec files.
	EnvsDirName = "envs"

	// PkgsDirName is the name of the shared package store directory.
	PkgsDirName = "pkgs"

	// RepodataDirName is the name of the channel metadata cache directory.
	RepodataDirName = "repodata"

	// SpecFileName is the fixed spec file name inside a path-based environment.
	SpecFileName = ".viva_env.json"

	// ConfigFileName is the name of the user configuration file.
	ConfigFileName = "viva.yaml"

	// MetaDirName is the per-prefix metadata directory.
	MetaDirName = "conda-meta"

	// ManifestFileName is the installed-set manifest inside MetaDirName.
	ManifestFileName = "viva-manifest.json"

	// LockSuffix is appended to a spec file path to form its lock file.
	LockSuffix = ".lock"

	// DefaultChannel is used when no channels are configured.
	DefaultChannel = "conda-forge"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// AliasEnvRoot returns the directory that holds alias target prefixes.
func AliasEnvRoot(dataDir string) string {
	return filepath.Join(dataDir, AppName, EnvsDirName)
}

// AliasSpecRoot returns the directory that holds alias spec files.
func AliasSpecRoot(configDir string) string {
	return filepath.Join(configDir, AppName, EnvsDirName)
}

// PackageStorePath returns the shared package store root under the cache directory.
func PackageStorePath(cacheDir string) string {
	return filepath.Join(cacheDir, AppName, PkgsDirName)
}

// RepodataCachePath returns the channel metadata cache root under the cache directory.
func RepodataCachePath(cacheDir string) string {
	return filepath.Join(cacheDir, AppName, RepodataDirName)
}

// ConfigFilePath returns the default configuration file path.
func ConfigFilePath(configDir string) string {
	return filepath.Join(configDir, AppName, ConfigFileName)
}

// ManifestPath returns the manifest path for a target prefix.
func ManifestPath(targetPrefix string) string {
	return filepath.Join(targetPrefix, MetaDirName, ManifestFileName)
}

// BinDirName returns the directory executables live in inside a prefix.
func BinDirName() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}
