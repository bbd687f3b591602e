package lifecycle_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/viva/internal/adapters/cas"
	"go.trai.ch/viva/internal/adapters/lock"
	"go.trai.ch/viva/internal/adapters/registry"
	"go.trai.ch/viva/internal/adapters/specifier"
	"go.trai.ch/viva/internal/adapters/specstore"
	"go.trai.ch/viva/internal/adapters/telemetry"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
	"go.trai.ch/viva/internal/core/ports/mocks"
	"go.trai.ch/viva/internal/engine/lifecycle"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

// pkg describes a fake package: its record and the files its archive contains.
type pkg struct {
	rec   domain.PackageRecord
	files map[string]string
}

func newPkg(name, version string, files map[string]string, depends ...string) pkg {
	sum := sha256.Sum256([]byte(name + "-" + version))
	return pkg{
		rec: domain.PackageRecord{
			Name:    name,
			Version: version,
			Build:   "0",
			SHA256:  hex.EncodeToString(sum[:]),
			Depends: depends,
		},
		files: files,
	}
}

// catalog is an in-memory channel. Resolving a request yields the named package
// preceded by its transitive dependencies.
type catalog struct {
	mu       sync.Mutex
	packages map[string]pkg
	calls    []domain.ResolveRequest
}

func newCatalog(pkgs ...pkg) *catalog {
	c := &catalog{packages: make(map[string]pkg)}
	c.publish(pkgs...)
	return c
}

func (c *catalog) publish(pkgs ...pkg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range pkgs {
		c.packages[p.rec.Name] = p
	}
}

func (c *catalog) byKey(key string) (pkg, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.packages {
		if p.rec.Key() == key {
			return p, true
		}
	}
	return pkg{}, false
}

func (c *catalog) Resolve(_ context.Context, req domain.ResolveRequest) ([]domain.PackageRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)

	var out []domain.PackageRecord
	seen := make(map[string]bool)
	var visit func(name string) error
	visit = func(name string) error {
		if seen[name] {
			return nil
		}
		p, ok := c.packages[name]
		if !ok {
			return zerr.With(zerr.Wrap(domain.ErrUnsatisfiable, "nothing provides package"), "package", name)
		}
		seen[name] = true
		for _, dep := range p.rec.Depends {
			if err := visit(dep); err != nil {
				return err
			}
		}
		out = append(out, p.rec)
		return nil
	}

	for _, request := range req.Requests {
		name, _, _ := strings.Cut(request, " ")
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *catalog) lastRequest() domain.ResolveRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[len(c.calls)-1]
}

// catalogFetcher writes a placeholder archive named after the record.
type catalogFetcher struct{}

func (catalogFetcher) Fetch(_ context.Context, rec domain.PackageRecord, dir string) (string, error) {
	path := filepath.Join(dir, rec.Key()+".tar")
	return path, os.WriteFile(path, []byte(rec.Key()), domain.FilePerm)
}

// catalogExtractor writes the files the catalog lists for the archive's package.
type catalogExtractor struct {
	catalog *catalog
}

func (e catalogExtractor) Extract(path, dest string) error {
	p, ok := e.catalog.byKey(strings.TrimSuffix(filepath.Base(path), ".tar"))
	if !ok {
		return errors.New("unknown archive " + path)
	}
	for rel, body := range p.files {
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(body), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// failingSpecStore fails every Save.
type failingSpecStore struct {
	ports.SpecStore
}

func (failingSpecStore) Save(string, domain.EnvironmentSpec) error {
	return zerr.Wrap(domain.ErrSpecWriteFailed, "disk full")
}

// failingLinkStore fails to link the package with the given name.
type failingLinkStore struct {
	ports.PackageStore
	name string
}

func (s failingLinkStore) LinkInto(rec domain.PackageRecord, entry domain.StoreEntry, prefix string) (domain.LinkReport, error) {
	if rec.Name == s.name {
		return domain.LinkReport{Package: rec.Key()}, &domain.MaterializationError{
			Package: rec.Key(),
			Cause:   errors.New("read-only file system"),
		}
	}
	return s.PackageStore.LinkInto(rec, entry, prefix)
}

// harness wires a Manager to real filesystem adapters rooted in a temp directory.
type harness struct {
	t        *testing.T
	osctx    specifier.OSContext
	cfg      *domain.Config
	catalog  *catalog
	specs    ports.SpecStore
	store    ports.PackageStore
	storeDir string
	clock    time.Time
}

func newHarness(t *testing.T, c *catalog) *harness {
	t.Helper()
	root := t.TempDir()
	cfg := &domain.Config{
		DefaultChannels: []string{"conda-forge"},
		Concurrency:     4,
		DataDir:         filepath.Join(root, "data"),
		ConfigDir:       filepath.Join(root, "config"),
		CacheDir:        filepath.Join(root, "cache"),
	}
	storeDir := domain.PackageStorePath(cfg.CacheDir)
	return &harness{
		t: t,
		osctx: specifier.OSContext{
			DataDir:    cfg.DataDir,
			ConfigDir:  cfg.ConfigDir,
			WorkDir:    root,
			Separators: "/",
		},
		cfg:      cfg,
		catalog:  c,
		specs:    specstore.NewStore(),
		store:    cas.NewStore(storeDir, catalogFetcher{}, catalogExtractor{catalog: c}, lock.NewLocker()),
		storeDir: storeDir,
		clock:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (h *harness) manager() *lifecycle.Manager {
	h.t.Helper()
	ctrl := gomock.NewController(h.t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	m := lifecycle.NewManager(
		h.specs,
		specstore.NewManifestStore(),
		h.catalog,
		h.store,
		lock.NewLocker(),
		registry.NewRegistry(domain.AliasSpecRoot(h.cfg.ConfigDir)),
		telemetry.NewNoOpTracer(),
		log,
		h.cfg,
	)
	m.SetClock(func() time.Time { return h.clock })
	return m
}

func (h *harness) location(spec string) domain.EnvironmentLocation {
	h.t.Helper()
	loc, err := specifier.Resolve(spec, h.osctx)
	require.NoError(h.t, err)
	return loc
}

func (h *harness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// ecosystem returns a small dependency graph:
// cookiecutter -> jinja2 -> markupsafe, cookiecutter -> python, requests -> python.
func ecosystem() []pkg {
	return []pkg{
		newPkg("python", "3.12", map[string]string{
			"bin/python":             "python 3.12",
			"lib/python3.12/os.py":   "os",
			"lib/python3.12/site.py": "site",
		}),
		newPkg("markupsafe", "2.1", map[string]string{
			"lib/python3.12/site-packages/markupsafe/__init__.py": "markupsafe",
		}, "python"),
		newPkg("jinja2", "3.1", map[string]string{
			"lib/python3.12/site-packages/jinja2/__init__.py": "jinja2",
		}, "markupsafe", "python"),
		newPkg("cookiecutter", "2.6", map[string]string{
			"bin/cookiecutter": "cookiecutter",
			"lib/python3.12/site-packages/cookiecutter/__init__.py": "cookiecutter",
		}, "jinja2", "python"),
		newPkg("requests", "2.32", map[string]string{
			"lib/python3.12/site-packages/requests/__init__.py": "requests",
		}, "python"),
	}
}
