// Package cas implements the shared content-addressed package store.
//
// Every package is extracted once into <root>/<sha256> and hard-linked into
// the prefixes that use it. Entries are never modified after they appear.
package cas

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	vivafs "go.trai.ch/viva/internal/adapters/fs"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// metadataDir holds package metadata that is not linked into prefixes.
const metadataDir = "info"

// Store implements ports.PackageStore on a local directory.
type Store struct {
	root      string
	fetcher   ports.PackageFetcher
	extractor ports.Extractor
	locker    ports.Locker
	walker    *vivafs.Walker
	link      func(oldname, newname string) error

	requestGroup singleflight.Group
}

// NewStore creates a package store rooted at root.
func NewStore(root string, fetcher ports.PackageFetcher, extractor ports.Extractor, locker ports.Locker) *Store {
	return &Store{
		root:      filepath.Clean(root),
		fetcher:   fetcher,
		extractor: extractor,
		locker:    locker,
		walker:    vivafs.NewWalker(),
		link:      os.Link,
	}
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// EnsureMaterialized returns the store entry of rec, fetching and extracting it on a miss.
// Within the process concurrent calls for one hash share a single extraction; across
// processes a per-hash lock file serialises them and the entry is re-checked after locking.
func (s *Store) EnsureMaterialized(ctx context.Context, rec domain.PackageRecord) (domain.StoreEntry, error) {
	hash, err := contentHash(rec)
	if err != nil {
		return domain.StoreEntry{}, err
	}

	result, err, _ := s.requestGroup.Do(hash, func() (any, error) {
		if entry, ok, err := s.lookup(rec, hash); err != nil || ok {
			return entry, err
		}

		if err := os.MkdirAll(s.root, domain.DirPerm); err != nil {
			return domain.StoreEntry{}, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "root", s.root)
		}

		unlock, err := s.locker.Lock(ctx, filepath.Join(s.root, hash+domain.LockSuffix))
		if err != nil {
			return domain.StoreEntry{}, err
		}
		defer unlock() //nolint:errcheck // Lock release is best effort

		if entry, ok, err := s.lookup(rec, hash); err != nil || ok {
			return entry, err
		}

		return s.materialize(ctx, rec, hash)
	})
	if err != nil {
		return domain.StoreEntry{}, err
	}

	entry, _ := result.(domain.StoreEntry)
	return entry, nil
}

// lookup returns the existing entry for hash, if any.
func (s *Store) lookup(rec domain.PackageRecord, hash string) (domain.StoreEntry, bool, error) {
	dir := filepath.Join(s.root, hash)
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.StoreEntry{}, false, nil
	}
	if err != nil {
		return domain.StoreEntry{}, false, zerr.With(zerr.Wrap(err, domain.ErrStoreScanFailed.Error()), "entry", dir)
	}
	if !info.IsDir() {
		return domain.StoreEntry{}, false, zerr.With(zerr.Wrap(domain.ErrStoreScanFailed, "entry is not a directory"), "entry", dir)
	}

	files, err := s.entryFiles(rec, dir)
	if err != nil {
		return domain.StoreEntry{}, false, err
	}
	return domain.StoreEntry{Hash: hash, Dir: dir, Files: files}, true, nil
}

func (s *Store) entryFiles(rec domain.PackageRecord, dir string) ([]string, error) {
	if len(rec.Files) > 0 {
		return slices.Clone(rec.Files), nil
	}
	files, err := s.walker.Files(dir, []string{metadataDir})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreScanFailed.Error()), "entry", dir)
	}
	return files, nil
}

// materialize downloads and extracts rec into a temp directory inside the store and
// renames it into place, so a partially extracted entry is never visible.
func (s *Store) materialize(ctx context.Context, rec domain.PackageRecord, hash string) (domain.StoreEntry, error) {
	tmp, err := os.MkdirTemp(s.root, "."+hash+".tmp-")
	if err != nil {
		return domain.StoreEntry{}, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "root", s.root)
	}
	defer os.RemoveAll(tmp) //nolint:errcheck // Temp cleanup is best effort

	download := filepath.Join(tmp, "download")
	content := filepath.Join(tmp, "content")
	if err := os.MkdirAll(download, domain.DirPerm); err != nil {
		return domain.StoreEntry{}, zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	archivePath, err := s.fetcher.Fetch(ctx, rec, download)
	if err != nil {
		return domain.StoreEntry{}, zerr.With(err, "package", rec.Key())
	}

	if err := s.extractor.Extract(archivePath, content); err != nil {
		return domain.StoreEntry{}, zerr.With(err, "package", rec.Key())
	}

	dir := filepath.Join(s.root, hash)
	if err := os.Rename(content, dir); err != nil {
		return domain.StoreEntry{}, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "entry", dir)
	}

	files, err := s.entryFiles(rec, dir)
	if err != nil {
		return domain.StoreEntry{}, err
	}
	return domain.StoreEntry{Hash: hash, Dir: dir, Files: files}, nil
}

// LinkInto places the entry's files into prefix. Each file is hard-linked and copied
// when linking fails; a failed link is reported as a warning, a failed copy aborts
// with a *domain.MaterializationError. Symlinks are recreated and existing targets replaced.
func (s *Store) LinkInto(rec domain.PackageRecord, entry domain.StoreEntry, prefix string) (domain.LinkReport, error) {
	report := domain.LinkReport{Package: rec.Key()}

	fail := func(cause error) (domain.LinkReport, error) {
		return report, &domain.MaterializationError{Package: rec.Key(), Cause: cause}
	}

	for _, rel := range entry.Files {
		if !filepath.IsLocal(rel) {
			return fail(zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "file escapes prefix"), "file", rel))
		}

		src := filepath.Join(entry.Dir, rel)
		dst := filepath.Join(prefix, rel)

		info, err := os.Lstat(src)
		if err != nil {
			return fail(zerr.With(zerr.Wrap(err, domain.ErrStoreScanFailed.Error()), "file", rel))
		}

		if err := replaceable(dst); err != nil {
			return fail(zerr.With(err, "file", rel))
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			if err := copySymlink(src, dst); err != nil {
				return fail(zerr.With(err, "file", rel))
			}
			report.Linked++
			continue
		}

		linkErr := s.link(src, dst)
		if linkErr == nil {
			report.Linked++
			continue
		}

		failure := domain.LinkFailure{Package: rec.Key(), File: rel, Cause: linkErr}
		if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
			return fail(errors.Join(&failure, err))
		}
		report.Copied++
		report.Failures = append(report.Failures, failure)
	}

	return report, nil
}

// replaceable prepares dst: its parent exists and any previous entry is gone.
func replaceable(dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create directory")
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.Wrap(err, "failed to replace existing file")
	}
	return nil
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return zerr.Wrap(err, "failed to read symlink")
	}
	if err := os.Symlink(target, dst); err != nil {
		return zerr.Wrap(err, "failed to create symlink")
	}
	return nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src) //nolint:gosec // src is a store entry file
	if err != nil {
		return zerr.Wrap(err, "failed to open store file")
	}
	defer in.Close() //nolint:errcheck // Read-only file

	//nolint:gosec // dst is inside the target prefix
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return zerr.Wrap(err, "failed to create file")
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.Wrap(err, "failed to copy file")
	}
	if err := out.Close(); err != nil {
		return zerr.Wrap(err, "failed to close file")
	}
	return nil
}

// UnlinkFrom removes rec's files from prefix and prunes the directories it leaves empty.
// Store entries are never touched.
func (s *Store) UnlinkFrom(rec domain.PackageRecord, prefix string) error {
	files := rec.Files
	if len(files) == 0 {
		hash, err := contentHash(rec)
		if err != nil {
			return err
		}
		entry, ok, err := s.lookup(rec, hash)
		if err != nil {
			return zerr.With(err, "package", rec.Key())
		}
		if !ok {
			return zerr.With(zerr.Wrap(domain.ErrUnlinkFailed, "package files are unknown"), "package", rec.Key())
		}
		files = entry.Files
	}

	var errs []error
	dirs := make(map[string]struct{})
	for _, rel := range files {
		if !filepath.IsLocal(rel) {
			continue
		}
		dst := filepath.Join(prefix, rel)
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, zerr.With(err, "file", rel))
			continue
		}
		for dir := filepath.Dir(rel); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
			dirs[dir] = struct{}{}
		}
	}

	pruneEmpty(prefix, dirs)

	if len(errs) > 0 {
		return zerr.With(zerr.Wrap(errors.Join(errs...), domain.ErrUnlinkFailed.Error()), "package", rec.Key())
	}
	return nil
}

// pruneEmpty removes the given prefix-relative directories deepest first when they are empty.
func pruneEmpty(prefix string, dirs map[string]struct{}) {
	ordered := make([]string, 0, len(dirs))
	for dir := range dirs {
		ordered = append(ordered, dir)
	}
	slices.SortFunc(ordered, func(a, b string) int {
		if d := strings.Count(b, string(filepath.Separator)) - strings.Count(a, string(filepath.Separator)); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	for _, dir := range ordered {
		// Non-empty directories fail to remove and are kept.
		_ = os.Remove(filepath.Join(prefix, dir))
	}
}

// contentHash validates and normalises the record's SHA-256.
func contentHash(rec domain.PackageRecord) (string, error) {
	hash := strings.ToLower(rec.SHA256)
	if hash == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrMissingContentHash, "record has no sha256"), "package", rec.Key())
	}
	if decoded, err := hex.DecodeString(hash); err != nil || len(decoded) != 32 {
		return "", zerr.With(zerr.Wrap(domain.ErrMissingContentHash, "sha256 is malformed"), "package", rec.Key())
	}
	return hash, nil
}
