// Package archive unpacks conda package archives.
package archive

import (
	"archive/tar"
	"compress/bzip2"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/zerr"
)

// Supported archive suffixes.
const (
	SuffixConda  = ".conda"
	SuffixTarBz2 = ".tar.bz2"
	SuffixTarZst = ".tar.zst"
	SuffixTarXz  = ".tar.xz"
	SuffixTarGz  = ".tar.gz"
)

// Extractor implements ports.Extractor for the archive formats conda channels serve.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether filename has an archive suffix the extractor understands.
func Supported(filename string) bool {
	for _, suffix := range []string{SuffixConda, SuffixTarBz2, SuffixTarZst, SuffixTarXz, SuffixTarGz} {
		if strings.HasSuffix(filename, suffix) {
			return true
		}
	}
	return false
}

// Extract unpacks the archive at src into dest, creating dest if needed.
func (e *Extractor) Extract(src, dest string) error {
	if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrExtractFailed.Error()), "dest", dest)
	}

	var err error
	switch {
	case strings.HasSuffix(src, SuffixConda):
		err = extractConda(src, dest)
	case strings.HasSuffix(src, SuffixTarBz2):
		err = extractTar(src, dest, func(r io.Reader) (io.Reader, func(), error) {
			return bzip2.NewReader(r), func() {}, nil
		})
	case strings.HasSuffix(src, SuffixTarZst):
		err = extractTar(src, dest, zstdReader)
	case strings.HasSuffix(src, SuffixTarXz):
		err = extractTar(src, dest, func(r io.Reader) (io.Reader, func(), error) {
			xr, err := xz.NewReader(r)
			return xr, func() {}, err
		})
	case strings.HasSuffix(src, SuffixTarGz):
		err = extractTar(src, dest, func(r io.Reader) (io.Reader, func(), error) {
			gr, err := gzip.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return gr, func() { _ = gr.Close() }, nil
		})
	default:
		return zerr.With(zerr.Wrap(domain.ErrUnsupportedArchive, "unknown archive suffix"), "archive", filepath.Base(src))
	}

	if err != nil {
		return zerr.With(err, "archive", filepath.Base(src))
	}
	return nil
}

type decompressor func(io.Reader) (io.Reader, func(), error)

func zstdReader(r io.Reader) (io.Reader, func(), error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	return zr, zr.Close, nil
}

func extractTar(src, dest string, decompress decompressor) error {
	f, err := os.Open(src) //nolint:gosec // Archive paths come from the package store
	if err != nil {
		return zerr.Wrap(err, domain.ErrExtractFailed.Error())
	}
	defer f.Close() //nolint:errcheck // Read-only file

	return untar(f, dest, decompress)
}

// extractConda unpacks a .conda archive: a zip holding zstd-compressed tarballs
// for the package payload (pkg-*.tar.zst) and its metadata (info-*.tar.zst).
func extractConda(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return zerr.Wrap(err, domain.ErrExtractFailed.Error())
	}
	defer zr.Close() //nolint:errcheck // Read-only archive

	found := false
	for _, member := range zr.File {
		name := member.Name
		if !strings.HasSuffix(name, SuffixTarZst) {
			continue
		}
		if !strings.HasPrefix(name, "pkg-") && !strings.HasPrefix(name, "info-") {
			continue
		}
		found = true

		if err := extractMember(member, dest); err != nil {
			return zerr.With(err, "member", name)
		}
	}

	if !found {
		return zerr.Wrap(domain.ErrExtractFailed, "no payload in conda archive")
	}
	return nil
}

func extractMember(member *zip.File, dest string) error {
	rc, err := member.Open()
	if err != nil {
		return zerr.Wrap(err, domain.ErrExtractFailed.Error())
	}
	defer rc.Close() //nolint:errcheck // Read-only member

	return untar(rc, dest, zstdReader)
}

func untar(r io.Reader, dest string, decompress decompressor) error {
	dr, done, err := decompress(r)
	if err != nil {
		return zerr.Wrap(err, domain.ErrExtractFailed.Error())
	}
	defer done()

	tr := tar.NewReader(dr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.Wrap(err, domain.ErrExtractFailed.Error())
		}

		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}
		if target == dest {
			continue
		}

		if err := noSymlinkParents(dest, target); err != nil {
			return zerr.With(err, "entry", header.Name)
		}
		if err := writeEntry(tr, header, dest, target); err != nil {
			return zerr.With(err, "entry", header.Name)
		}
	}
}

func writeEntry(tr *tar.Reader, header *tar.Header, dest, target string) error {
	switch header.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, domain.DirPerm); err != nil {
			return zerr.Wrap(err, domain.ErrExtractFailed.Error())
		}
		return nil

	case tar.TypeReg:
		if err := prepare(target); err != nil {
			return err
		}
		return writeFile(tr, target, header.FileInfo().Mode().Perm())

	case tar.TypeSymlink:
		if err := prepare(target); err != nil {
			return err
		}
		if err := os.Symlink(header.Linkname, target); err != nil {
			return zerr.Wrap(err, domain.ErrExtractFailed.Error())
		}
		return nil

	case tar.TypeLink:
		source, err := safeJoin(dest, header.Linkname)
		if err != nil {
			return err
		}
		if err := noSymlinkParents(dest, source); err != nil {
			return err
		}
		if err := prepare(target); err != nil {
			return err
		}
		if err := os.Link(source, target); err != nil {
			return zerr.Wrap(err, domain.ErrExtractFailed.Error())
		}
		return nil

	default:
		// Device nodes, fifos and pax metadata have no place in a package.
		return nil
	}
}

// prepare creates the parent of target and clears any previous entry at target.
func prepare(target string) error {
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrExtractFailed.Error())
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return zerr.Wrap(err, domain.ErrExtractFailed.Error())
	}
	return nil
}

func writeFile(r io.Reader, target string, perm os.FileMode) error {
	// Owner must be able to read and replace store files.
	perm |= 0o600

	//nolint:gosec // Target is checked against the extraction root
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return zerr.Wrap(err, domain.ErrExtractFailed.Error())
	}

	//nolint:gosec // Package sizes are bounded by the channel
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return zerr.Wrap(err, domain.ErrExtractFailed.Error())
	}
	if err := out.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrExtractFailed.Error())
	}
	return nil
}

// safeJoin resolves an archive entry name below dest, rejecting names that escape it.
func safeJoin(dest, name string) (string, error) {
	rel := path.Clean(filepath.ToSlash(name))
	if rel == "." {
		return dest, nil
	}
	if filepath.IsAbs(name) || path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "entry escapes destination"), "entry", name)
	}
	return filepath.Join(dest, filepath.FromSlash(rel)), nil
}

// noSymlinkParents rejects target when a directory between dest and target is a
// symlink. Writing through one could place files outside dest.
func noSymlinkParents(dest, target string) error {
	rel, err := filepath.Rel(dest, filepath.Dir(target))
	if err != nil || rel == "." {
		return nil
	}

	dir := dest
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		dir = filepath.Join(dir, part)
		info, err := os.Lstat(dir)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return zerr.Wrap(err, domain.ErrExtractFailed.Error())
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "entry is below a symlink"), "symlink", part)
		}
	}
	return nil
}
