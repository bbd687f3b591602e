package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidSpecifier is returned when a specifier is neither a path nor a valid alias.
	ErrInvalidSpecifier = zerr.New("invalid environment specifier")

	// ErrAlreadyExists is returned when creating an environment whose spec file is already present.
	ErrAlreadyExists = zerr.New("environment already exists")

	// ErrNotFound is returned when an environment has no spec file.
	ErrNotFound = zerr.New("environment not found")

	// ErrLocked is returned when another process holds the environment lock.
	ErrLocked = zerr.New("environment is locked by another process")

	// ErrUnsatisfiable is returned when the resolver cannot produce a consistent package set.
	ErrUnsatisfiable = zerr.New("package requests are unsatisfiable")

	// ErrLinkFailed is returned when a single file could not be hard-linked into a prefix.
	ErrLinkFailed = zerr.New("failed to link file")

	// ErrMaterializationFailed is returned when a package could not be made present in a prefix.
	ErrMaterializationFailed = zerr.New("failed to materialize package")

	// ErrSpecCorrupt is returned when a spec file cannot be decoded.
	ErrSpecCorrupt = zerr.New("environment spec file is corrupt")

	// ErrPartiallyUpdated is returned when a merge or update aborted after mutating the prefix.
	ErrPartiallyUpdated = zerr.New("environment was partially updated and needs repair")

	// ErrSpecReadFailed is returned when the spec file cannot be read.
	ErrSpecReadFailed = zerr.New("failed to read environment spec")

	// ErrSpecWriteFailed is returned when the spec file cannot be written.
	ErrSpecWriteFailed = zerr.New("failed to write environment spec")

	// ErrManifestReadFailed is returned when the installed-set manifest cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read environment manifest")

	// ErrManifestWriteFailed is returned when the installed-set manifest cannot be written.
	ErrManifestWriteFailed = zerr.New("failed to write environment manifest")

	// ErrLockFailed is returned when the lock file cannot be opened or locked.
	ErrLockFailed = zerr.New("failed to acquire lock")

	// ErrStoreCreateFailed is returned when the package store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create package store directory")

	// ErrStoreScanFailed is returned when a package store entry cannot be enumerated.
	ErrStoreScanFailed = zerr.New("failed to scan package store entry")

	// ErrUnlinkFailed is returned when package files cannot be removed from a prefix.
	ErrUnlinkFailed = zerr.New("failed to unlink package")

	// ErrMissingContentHash is returned when a package record carries no content hash.
	ErrMissingContentHash = zerr.New("package record has no content hash")

	// ErrPackageDownloadFailed is returned when a package archive cannot be downloaded.
	ErrPackageDownloadFailed = zerr.New("failed to download package archive")

	// ErrChecksumMismatch is returned when a downloaded archive does not match its content hash.
	ErrChecksumMismatch = zerr.New("package archive checksum mismatch")

	// ErrUnsupportedArchive is returned when the archive format is not known.
	ErrUnsupportedArchive = zerr.New("unsupported package archive format")

	// ErrExtractFailed is returned when a package archive cannot be extracted.
	ErrExtractFailed = zerr.New("failed to extract package archive")

	// ErrUnsafeArchivePath is returned when an archive member would escape the destination.
	ErrUnsafeArchivePath = zerr.New("archive member escapes destination directory")

	// ErrChannelFetchFailed is returned when channel metadata cannot be fetched.
	ErrChannelFetchFailed = zerr.New("failed to fetch channel metadata")

	// ErrChannelParseFailed is returned when channel metadata cannot be decoded.
	ErrChannelParseFailed = zerr.New("failed to parse channel metadata")

	// ErrInvalidMatchRequest is returned when a match request cannot be parsed by the solver.
	ErrInvalidMatchRequest = zerr.New("invalid package match request")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigWriteFailed is returned when the default config file cannot be written.
	ErrConfigWriteFailed = zerr.New("failed to write default config file")

	// ErrInvalidCheckStrategy is returned for an unknown environment check strategy.
	ErrInvalidCheckStrategy = zerr.New("invalid environment check strategy")

	// ErrNoCommand is returned when run is invoked without a command.
	ErrNoCommand = zerr.New("no command provided")

	// ErrExecutableNotFound is returned when a command is not present in the environment.
	ErrExecutableNotFound = zerr.New("executable not found in environment")

	// ErrCommandFailed is returned when a command run inside an environment fails.
	ErrCommandFailed = zerr.New("command failed")
)
