// Package specifier maps environment specifier strings to on-disk locations.
package specifier

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/zerr"
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// OSContext carries the per-process OS facts the resolver depends on.
// It is built once at start-up and passed in, so Resolve never reads globals.
type OSContext struct {
	// DataDir is the user data base directory (alias prefixes live below it).
	DataDir string
	// ConfigDir is the user config base directory (alias spec files live below it).
	ConfigDir string
	// WorkDir anchors relative path specifiers.
	WorkDir string
	// Separators lists the characters that make a specifier a path.
	Separators string
	// FS is used for existence checks.
	FS FileSystem
}

// DefaultSeparators returns the path separators of the running OS.
func DefaultSeparators() string {
	if runtime.GOOS == "windows" {
		return `/\`
	}
	return "/"
}

// NewOSContext builds the context for this process from the resolved configuration.
func NewOSContext(cfg *domain.Config) (OSContext, error) {
	wd, err := os.Getwd()
	if err != nil {
		return OSContext{}, zerr.Wrap(err, "failed to get working directory")
	}
	return OSContext{
		DataDir:    cfg.DataDir,
		ConfigDir:  cfg.ConfigDir,
		WorkDir:    wd,
		Separators: DefaultSeparators(),
		FS:         OSFS{},
	}, nil
}

// IsAlias reports whether name is a valid alias.
func IsAlias(name string) bool {
	return aliasPattern.MatchString(name)
}

// Resolve interprets spec. The first matching rule wins:
//  1. a string containing a path separator is a path;
//  2. a string of letters, digits and underscores is an alias;
//  3. anything else is rejected with domain.ErrInvalidSpecifier.
//
// The input is not trimmed.
func Resolve(spec string, osctx OSContext) (domain.EnvironmentLocation, error) {
	seps := osctx.Separators
	if seps == "" {
		seps = DefaultSeparators()
	}

	if strings.ContainsAny(spec, seps) {
		return resolvePath(spec, osctx)
	}

	if IsAlias(spec) {
		return domain.EnvironmentLocation{
			Kind:         domain.KindAlias,
			Name:         spec,
			TargetPrefix: filepath.Join(domain.AliasEnvRoot(osctx.DataDir), spec),
			SpecFile:     filepath.Join(domain.AliasSpecRoot(osctx.ConfigDir), spec),
		}, nil
	}

	return domain.EnvironmentLocation{}, zerr.With(
		zerr.Wrap(domain.ErrInvalidSpecifier, "expected a path or an alias of letters, digits and underscores"),
		"specifier", spec,
	)
}

func resolvePath(spec string, osctx OSContext) (domain.EnvironmentLocation, error) {
	path := filepath.FromSlash(spec)
	if !filepath.IsAbs(path) {
		path = filepath.Join(osctx.WorkDir, path)
	}
	path = filepath.Clean(path)

	fsys := osctx.FS
	if fsys == nil {
		fsys = OSFS{}
	}

	info, err := fsys.Stat(path)
	switch {
	case err == nil && info.Mode().IsRegular():
		return domain.EnvironmentLocation{
			Kind:         domain.KindPath,
			Name:         spec,
			TargetPrefix: prefixForSpecFile(path),
			SpecFile:     path,
		}, nil
	case err == nil && info.IsDir(), errors.Is(err, fs.ErrNotExist):
		return domain.EnvironmentLocation{
			Kind:         domain.KindPath,
			Name:         spec,
			TargetPrefix: path,
			SpecFile:     filepath.Join(path, domain.SpecFileName),
		}, nil
	case err == nil:
		return domain.EnvironmentLocation{}, zerr.With(
			zerr.Wrap(domain.ErrInvalidSpecifier, "path is neither a regular file nor a directory"),
			"path", path,
		)
	default:
		return domain.EnvironmentLocation{}, errors.Join(
			domain.ErrInvalidSpecifier,
			zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path),
		)
	}
}

// prefixForSpecFile derives the target prefix of an existing spec file.
// The fixed spec file name lives inside its prefix; any other file gets a
// sibling directory named after its stem (env.yaml -> env), or after the
// full name plus ".env" when the name has no usable stem.
func prefixForSpecFile(path string) string {
	dir, base := filepath.Split(path)
	if base == domain.SpecFileName {
		return filepath.Clean(dir)
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == base {
		stem = base + ".env"
	}
	return filepath.Join(dir, stem)
}
