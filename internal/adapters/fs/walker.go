// Package fs provides file system helpers shared by the storage adapters.
package fs

import (
	iofs "io/fs"
	"iter"
	"path/filepath"
	"slices"

	"go.trai.ch/zerr"
)

// Walker enumerates the files of a directory tree.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the paths of all non-directory entries below root, relative to root.
// Symlinks are yielded and not followed. Entries whose relative path matches one of
// ignores are skipped, together with everything below them when they are directories.
// A walk error ends the sequence and is yielded with an empty path.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			if ignored(rel, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}

			if !yield(rel, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", zerr.With(zerr.Wrap(err, "failed to walk directory"), "root", root))
		}
	}
}

// Files collects WalkFiles into a sorted slice.
func (w *Walker) Files(root string, ignores []string) ([]string, error) {
	var files []string
	for rel, err := range w.WalkFiles(root, ignores) {
		if err != nil {
			return nil, err
		}
		files = append(files, rel)
	}
	slices.Sort(files)
	return files, nil
}

func ignored(rel string, ignores []string) bool {
	for _, pattern := range ignores {
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}
