package specstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	vivafs "go.trai.ch/viva/internal/adapters/fs"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/zerr"
)

// ManifestStore implements ports.ManifestStore with a JSON file inside the prefix.
type ManifestStore struct{}

// NewManifestStore creates a new ManifestStore.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{}
}

// Load returns the manifest of prefix, or nil, nil when there is none.
func (m *ManifestStore) Load(prefix string) (*domain.Manifest, error) {
	path := domain.ManifestPath(prefix)
	//nolint:gosec // Path is derived from the target prefix
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "manifest", path)
	}

	var manifest domain.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "manifest", path)
	}
	return &manifest, nil
}

// Save atomically replaces the manifest of prefix.
func (m *ManifestStore) Save(prefix string, manifest domain.Manifest) error {
	if manifest.Records == nil {
		manifest.Records = []domain.PackageRecord{}
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}

	path := domain.ManifestPath(prefix)
	if err := vivafs.AtomicWriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "manifest", path)
	}
	return nil
}

// Delete removes the manifest of prefix. A missing manifest is not an error.
func (m *ManifestStore) Delete(prefix string) error {
	path := domain.ManifestPath(prefix)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to delete manifest"), "manifest", path)
	}
	return nil
}
