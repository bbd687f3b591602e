// Package registry enumerates alias environments.
package registry

import (
	"errors"
	"io/fs"
	"os"
	"slices"

	"go.trai.ch/viva/internal/adapters/specifier"
	"go.trai.ch/zerr"
)

// Registry implements ports.Registry over the alias spec-file root.
type Registry struct {
	root string
}

// NewRegistry creates a registry reading alias spec files from root.
func NewRegistry(root string) *Registry {
	return &Registry{root: root}
}

// ListAliases returns the sorted names of alias environments.
// Only regular files named like an alias count; lock and temp files are skipped.
// A missing root yields an empty list. Entries created or removed concurrently
// may or may not be reported.
func (r *Registry) ListAliases() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read alias directory"), "root", r.root)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !specifier.IsAlias(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)
	return names, nil
}

// Root returns the directory being enumerated.
func (r *Registry) Root() string {
	return r.root
}
