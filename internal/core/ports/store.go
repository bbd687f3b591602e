package ports

import (
	"context"

	"go.trai.ch/viva/internal/core/domain"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// SpecStore reads and writes environment spec files.
type SpecStore interface {
	// Load reads the spec at path.
	// It returns an error wrapping domain.ErrNotFound when the file does not exist
	// and domain.ErrSpecCorrupt when it cannot be decoded.
	Load(path string) (*domain.EnvironmentSpec, error)

	// Save atomically replaces the spec at path.
	Save(path string, spec domain.EnvironmentSpec) error

	// Delete removes the spec at path.
	Delete(path string) error
}

// ManifestStore keeps the installed-set manifest inside a target prefix.
type ManifestStore interface {
	// Load returns the manifest of prefix, or nil, nil when there is none.
	Load(prefix string) (*domain.Manifest, error)

	// Save atomically replaces the manifest of prefix.
	Save(prefix string, manifest domain.Manifest) error

	// Delete removes the manifest of prefix.
	Delete(prefix string) error
}

// PackageStore is the shared content-addressed cache of extracted packages.
type PackageStore interface {
	// EnsureMaterialized makes sure the record is extracted in the store and returns its entry.
	// Concurrent calls for the same content hash extract at most once.
	EnsureMaterialized(ctx context.Context, rec domain.PackageRecord) (domain.StoreEntry, error)

	// LinkInto hard-links the entry's files into prefix, copying files that cannot be linked.
	LinkInto(rec domain.PackageRecord, entry domain.StoreEntry, prefix string) (domain.LinkReport, error)

	// UnlinkFrom removes the record's files from prefix without touching the store.
	UnlinkFrom(rec domain.PackageRecord, prefix string) error
}

// PackageFetcher downloads package archives.
type PackageFetcher interface {
	// Fetch downloads the record's archive into dir, verifies its content hash and returns its path.
	Fetch(ctx context.Context, rec domain.PackageRecord, dir string) (string, error)
}

// Extractor unpacks package archives.
type Extractor interface {
	// Extract unpacks the archive at path into dest.
	Extract(path, dest string) error
}
