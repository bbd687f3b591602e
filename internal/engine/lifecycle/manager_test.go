package lifecycle_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/viva/internal/adapters/lock"
	"go.trai.ch/viva/internal/adapters/specstore"
	"go.trai.ch/viva/internal/core/domain"
)

func TestManager_Create(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	res, err := m.Create(t.Context(), loc, []string{"conda-forge"}, []string{"cookiecutter"})
	require.NoError(t, err)

	assert.Equal(t, []string{"python-3.12-0", "markupsafe-2.1-0", "jinja2-3.1-0", "cookiecutter-2.6-0"},
		domain.RecordKeys(res.Records))
	assert.Empty(t, res.Warnings)

	var onDisk map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFile(t, loc.SpecFile)), &onDisk))
	assert.Equal(t, []any{"conda-forge"}, onDisk["channels"])
	assert.Equal(t, []any{"cookiecutter"}, onDisk["requests"])

	assert.Equal(t, "cookiecutter", readFile(t, filepath.Join(loc.TargetPrefix, "bin", "cookiecutter")))
	assert.Equal(t, "python 3.12", readFile(t, filepath.Join(loc.TargetPrefix, "bin", "python")))
	assert.Equal(t, "markupsafe",
		readFile(t, filepath.Join(loc.TargetPrefix, "lib", "python3.12", "site-packages", "markupsafe", "__init__.py")))

	manifest, err := specstore.NewManifestStore().Load(loc.TargetPrefix)
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, domain.ManifestComplete, manifest.State)
	assert.Len(t, manifest.Records, 4)
	for _, rec := range manifest.Records {
		assert.NotEmpty(t, rec.Files, rec.Key())
	}

	req := h.catalog.lastRequest()
	assert.Empty(t, req.Installed)
	assert.False(t, req.Refresh)
}

func TestManager_Create_DefaultChannels(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	loc := h.location("py")

	res, err := h.manager().Create(t.Context(), loc, nil, []string{"python"})
	require.NoError(t, err)
	assert.Equal(t, []string{"conda-forge"}, res.Spec.Channels)
	assert.Equal(t, []string{"conda-forge"}, h.catalog.lastRequest().Channels)
}

func TestManager_Create_TwiceFailsWithAlreadyExists(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	_, err := m.Create(t.Context(), loc, []string{"conda-forge"}, []string{"cookiecutter"})
	require.NoError(t, err)
	specBefore := readFile(t, loc.SpecFile)

	h.advance(time.Hour)
	_, err = m.Create(t.Context(), loc, []string{"bioconda"}, []string{"requests"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	assert.Equal(t, specBefore, readFile(t, loc.SpecFile))
	assert.NoFileExists(t, filepath.Join(loc.TargetPrefix, "lib", "python3.12", "site-packages", "requests", "__init__.py"))
}

func TestManager_Create_CorruptSpecCountsAsExisting(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	loc := h.location("cc")
	require.NoError(t, os.MkdirAll(filepath.Dir(loc.SpecFile), 0o750))
	require.NoError(t, os.WriteFile(loc.SpecFile, []byte("not a spec"), 0o600))

	_, err := h.manager().Create(t.Context(), loc, nil, []string{"python"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.ErrorIs(t, err, domain.ErrSpecCorrupt)
	assert.Equal(t, "not a spec", readFile(t, loc.SpecFile))
}

func TestManager_Create_UnsatisfiableLeavesNoTrace(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	loc := h.location("broken")

	_, err := h.manager().Create(t.Context(), loc, nil, []string{"python", "does-not-exist"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsatisfiable)

	assert.NoDirExists(t, loc.TargetPrefix)
	assert.NoFileExists(t, loc.SpecFile)
	assert.NoDirExists(t, h.storeDir)
}

func TestManager_Create_FailureBeforeSpecSaveIsRetryable(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	loc := h.location("cc")

	realSpecs := h.specs
	h.specs = failingSpecStore{SpecStore: realSpecs}
	_, err := h.manager().Create(t.Context(), loc, nil, []string{"cookiecutter"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSpecWriteFailed)
	assert.NoFileExists(t, loc.SpecFile)

	h.specs = realSpecs
	m := h.manager()
	env, err := m.Status(loc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusMissing, env.Status)

	_, err = m.Create(t.Context(), loc, nil, []string{"cookiecutter"})
	require.NoError(t, err)
	assert.FileExists(t, loc.SpecFile)
	assert.Equal(t, "cookiecutter", readFile(t, filepath.Join(loc.TargetPrefix, "bin", "cookiecutter")))
}

func TestManager_Create_LinkFailureReportsCompletedPackages(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	h.store = failingLinkStore{PackageStore: h.store, name: "jinja2"}
	loc := h.location("cc")

	_, err := h.manager().Create(t.Context(), loc, nil, []string{"cookiecutter"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMaterializationFailed)

	var matErr *domain.MaterializationError
	require.True(t, errors.As(err, &matErr))
	assert.Equal(t, "jinja2-3.1-0", matErr.Package)
	assert.Equal(t, []string{"python-3.12-0", "markupsafe-2.1-0"}, matErr.Completed)

	assert.NoFileExists(t, loc.SpecFile)
	manifest, err := specstore.NewManifestStore().Load(loc.TargetPrefix)
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, domain.ManifestPending, manifest.State)
}

func TestManager_Create_Locked(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	loc := h.location("cc")

	unlock, err := lock.NewLocker().TryLock(loc.LockFile())
	require.NoError(t, err)
	defer unlock() //nolint:errcheck // Test cleanup

	_, err = h.manager().Create(t.Context(), loc, nil, []string{"python"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLocked)
	assert.Empty(t, h.catalog.calls)
}

func TestManager_SharedPackagesUseOneCopy(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	first := h.location("first")
	second := h.location("second")

	_, err := m.Create(t.Context(), first, nil, []string{"cookiecutter"})
	require.NoError(t, err)
	_, err = m.Create(t.Context(), second, nil, []string{"requests"})
	require.NoError(t, err)

	a, err := os.Stat(filepath.Join(first.TargetPrefix, "bin", "python"))
	require.NoError(t, err)
	b, err := os.Stat(filepath.Join(second.TargetPrefix, "bin", "python"))
	require.NoError(t, err)
	assert.True(t, os.SameFile(a, b))

	entries, err := os.ReadDir(h.storeDir)
	require.NoError(t, err)
	dirs := 0
	for _, e := range entries {
		if e.IsDir() {
			dirs++
		}
	}
	// python, markupsafe, jinja2, cookiecutter and requests are each stored once.
	assert.Equal(t, 5, dirs)
}

func TestManager_Merge(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	created, err := m.Create(t.Context(), loc, []string{"conda-forge"}, []string{"cookiecutter"})
	require.NoError(t, err)

	h.advance(time.Hour)
	res, err := m.Merge(t.Context(), loc, nil, []string{"requests"})
	require.NoError(t, err)

	assert.Equal(t, []string{"cookiecutter", "requests"}, res.Spec.Requests)
	assert.Equal(t, []string{"conda-forge"}, res.Spec.Channels)
	assert.Equal(t, created.Spec.CreatedAt, res.Spec.CreatedAt)
	assert.Equal(t, h.clock, res.Spec.LastUpdatedAt)
	assert.Equal(t, []string{"requests-2.32-0"}, domain.RecordKeys(res.Added))

	assert.Equal(t, "cookiecutter", readFile(t, filepath.Join(loc.TargetPrefix, "bin", "cookiecutter")))
	assert.Equal(t, "requests",
		readFile(t, filepath.Join(loc.TargetPrefix, "lib", "python3.12", "site-packages", "requests", "__init__.py")))

	req := h.catalog.lastRequest()
	assert.Len(t, req.Installed, 4)

	saved, err := h.specs.Load(loc.SpecFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"cookiecutter", "requests"}, saved.Requests)

	env, err := m.Status(loc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, env.Status)
	assert.Len(t, env.Installed, 5)
}

func TestManager_Merge_AddsChannelsWithoutDuplicates(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	_, err := m.Create(t.Context(), loc, []string{"conda-forge"}, []string{"python"})
	require.NoError(t, err)

	res, err := m.Merge(t.Context(), loc, []string{"bioconda", "conda-forge"}, []string{"python"})
	require.NoError(t, err)
	assert.Equal(t, []string{"conda-forge", "bioconda"}, res.Spec.Channels)
	assert.Equal(t, []string{"python", "python"}, res.Spec.Requests)
	assert.Empty(t, res.Added)
}

func TestManager_Merge_MissingEnvironment(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))

	_, err := h.manager().Merge(t.Context(), h.location("nope"), nil, []string{"python"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManager_Merge_PartialFailureKeepsSpec(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	loc := h.location("cc")

	_, err := h.manager().Create(t.Context(), loc, nil, []string{"python"})
	require.NoError(t, err)
	specBefore := readFile(t, loc.SpecFile)

	h.store = failingLinkStore{PackageStore: h.store, name: "jinja2"}
	_, err = h.manager().Merge(t.Context(), loc, nil, []string{"cookiecutter"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPartiallyUpdated)
	assert.ErrorIs(t, err, domain.ErrMaterializationFailed)

	var partial *domain.PartialUpdateError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []string{"markupsafe-2.1-0"}, partial.Completed)
	assert.Equal(t, []string{"jinja2-3.1-0", "cookiecutter-2.6-0"}, partial.Remaining)

	assert.Equal(t, specBefore, readFile(t, loc.SpecFile))

	env, err := h.manager().Status(loc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, env.Status)
}

func TestManager_Merge_RetryAfterPartialFailure(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	loc := h.location("cc")

	_, err := h.manager().Create(t.Context(), loc, nil, []string{"python"})
	require.NoError(t, err)

	healthy := h.store
	h.store = failingLinkStore{PackageStore: healthy, name: "jinja2"}
	_, err = h.manager().Merge(t.Context(), loc, nil, []string{"cookiecutter"})
	require.ErrorIs(t, err, domain.ErrPartiallyUpdated)

	manifest, err := specstore.NewManifestStore().Load(loc.TargetPrefix)
	require.NoError(t, err)
	assert.Equal(t, domain.ManifestPending, manifest.State)
	assert.Equal(t, []string{"python-3.12-0"}, domain.RecordKeys(manifest.Records))

	h.store = healthy
	m := h.manager()
	res, err := m.Merge(t.Context(), loc, nil, []string{"cookiecutter"})
	require.NoError(t, err)
	assert.Equal(t, []string{"markupsafe-2.1-0", "jinja2-3.1-0", "cookiecutter-2.6-0"}, domain.RecordKeys(res.Added))

	assert.Equal(t, "cookiecutter", readFile(t, filepath.Join(loc.TargetPrefix, "bin", "cookiecutter")))
	assert.Equal(t, "jinja2",
		readFile(t, filepath.Join(loc.TargetPrefix, "lib", "python3.12", "site-packages", "jinja2", "__init__.py")))

	env, err := m.Status(loc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, env.Status)
	assert.Len(t, env.Installed, 4)
}

func TestManager_Create_RetryUnlinksAbandonedPackages(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	loc := h.location("cc")

	healthy := h.store
	h.store = failingLinkStore{PackageStore: healthy, name: "jinja2"}
	_, err := h.manager().Create(t.Context(), loc, nil, []string{"cookiecutter"})
	require.ErrorIs(t, err, domain.ErrMaterializationFailed)
	assert.FileExists(t, filepath.Join(loc.TargetPrefix, "lib", "python3.12", "site-packages", "markupsafe", "__init__.py"))

	h.store = healthy
	res, err := h.manager().Create(t.Context(), loc, nil, []string{"requests"})
	require.NoError(t, err)
	assert.Equal(t, []string{"python-3.12-0", "requests-2.32-0"}, domain.RecordKeys(res.Records))

	assert.NoDirExists(t, filepath.Join(loc.TargetPrefix, "lib", "python3.12", "site-packages", "markupsafe"))
	assert.Equal(t, "python 3.12", readFile(t, filepath.Join(loc.TargetPrefix, "bin", "python")))
}

func TestManager_Apply(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	res, err := m.Apply(t.Context(), loc, nil, []string{"cookiecutter"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cookiecutter"}, res.Spec.Requests)

	res, err = m.Apply(t.Context(), loc, nil, []string{"requests"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cookiecutter", "requests"}, res.Spec.Requests)
	assert.Equal(t, []string{"requests-2.32-0"}, domain.RecordKeys(res.Added))
}

func TestManager_Repair_RestoresDeletedFiles(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	_, err := m.Create(t.Context(), loc, nil, []string{"cookiecutter"})
	require.NoError(t, err)
	exe := filepath.Join(loc.TargetPrefix, "bin", "cookiecutter")
	require.NoError(t, os.Remove(exe))

	res, err := m.Apply(t.Context(), loc, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.NoFileExists(t, exe)

	res, err = m.Repair(t.Context(), loc, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Equal(t, "cookiecutter", readFile(t, exe))

	env, err := m.Status(loc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, env.Status)
}

func TestManager_Update(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	created, err := m.Create(t.Context(), loc, nil, []string{"cookiecutter"})
	require.NoError(t, err)

	h.catalog.publish(newPkg("jinja2", "3.2", map[string]string{
		"lib/python3.12/site-packages/jinja2/__init__.py": "jinja2 3.2",
		"lib/python3.12/site-packages/jinja2/async.py":    "async",
	}, "markupsafe", "python"))

	h.advance(24 * time.Hour)
	res, err := m.Update(t.Context(), loc)
	require.NoError(t, err)

	assert.Equal(t, []string{"jinja2-3.1-0"}, domain.RecordKeys(res.Removed))
	assert.Equal(t, []string{"jinja2-3.2-0"}, domain.RecordKeys(res.Added))
	assert.Equal(t, created.Spec.CreatedAt, res.Spec.CreatedAt)
	assert.Equal(t, h.clock, res.Spec.LastUpdatedAt)
	assert.Equal(t, []string{"cookiecutter"}, res.Spec.Requests)

	site := filepath.Join(loc.TargetPrefix, "lib", "python3.12", "site-packages", "jinja2")
	assert.Equal(t, "jinja2 3.2", readFile(t, filepath.Join(site, "__init__.py")))
	assert.Equal(t, "async", readFile(t, filepath.Join(site, "async.py")))

	req := h.catalog.lastRequest()
	assert.True(t, req.Refresh)
	assert.Empty(t, req.Installed)

	manifest, err := specstore.NewManifestStore().Load(loc.TargetPrefix)
	require.NoError(t, err)
	assert.Equal(t, domain.ManifestComplete, manifest.State)
	assert.Contains(t, domain.RecordKeys(manifest.Records), "jinja2-3.2-0")
	assert.NotContains(t, domain.RecordKeys(manifest.Records), "jinja2-3.1-0")
}

func TestManager_Update_RemovesDroppedDependencies(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	_, err := m.Create(t.Context(), loc, nil, []string{"cookiecutter"})
	require.NoError(t, err)

	// jinja2 no longer needs markupsafe.
	h.catalog.publish(newPkg("jinja2", "4.0", map[string]string{
		"lib/python3.12/site-packages/jinja2/__init__.py": "jinja2 4",
	}, "python"))

	res, err := m.Update(t.Context(), loc)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"jinja2-3.1-0", "markupsafe-2.1-0"}, domain.RecordKeys(res.Removed))

	assert.NoDirExists(t, filepath.Join(loc.TargetPrefix, "lib", "python3.12", "site-packages", "markupsafe"))
	assert.Equal(t, "jinja2 4",
		readFile(t, filepath.Join(loc.TargetPrefix, "lib", "python3.12", "site-packages", "jinja2", "__init__.py")))
}

func TestManager_Update_NothingChanged(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	_, err := m.Create(t.Context(), loc, nil, []string{"requests"})
	require.NoError(t, err)

	h.advance(time.Minute)
	res, err := m.Update(t.Context(), loc)
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Empty(t, res.Removed)
	assert.Equal(t, h.clock, res.Spec.LastUpdatedAt)
	assert.Equal(t, "python 3.12", readFile(t, filepath.Join(loc.TargetPrefix, "bin", "python")))
}

func TestManager_Update_PartialFailure(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	loc := h.location("cc")

	_, err := h.manager().Create(t.Context(), loc, nil, []string{"cookiecutter"})
	require.NoError(t, err)
	specBefore := readFile(t, loc.SpecFile)

	h.catalog.publish(newPkg("jinja2", "3.2", map[string]string{
		"lib/python3.12/site-packages/jinja2/__init__.py": "jinja2 3.2",
	}, "markupsafe", "python"))
	h.store = failingLinkStore{PackageStore: h.store, name: "jinja2"}

	_, err = h.manager().Update(t.Context(), loc)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPartiallyUpdated)

	var partial *domain.PartialUpdateError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []string{"jinja2-3.1-0"}, partial.Completed)
	assert.Equal(t, []string{"jinja2-3.2-0"}, partial.Remaining)
	assert.Equal(t, specBefore, readFile(t, loc.SpecFile))
}

func TestManager_Update_RetryAfterPartialFailure(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	loc := h.location("cc")

	_, err := h.manager().Create(t.Context(), loc, nil, []string{"cookiecutter"})
	require.NoError(t, err)

	h.catalog.publish(newPkg("jinja2", "3.2", map[string]string{
		"lib/python3.12/site-packages/jinja2/__init__.py": "jinja2 3.2",
	}, "markupsafe", "python"))

	healthy := h.store
	h.store = failingLinkStore{PackageStore: healthy, name: "jinja2"}
	_, err = h.manager().Update(t.Context(), loc)
	require.ErrorIs(t, err, domain.ErrPartiallyUpdated)

	h.store = healthy
	m := h.manager()
	res, err := m.Update(t.Context(), loc)
	require.NoError(t, err)
	assert.Equal(t, []string{"jinja2-3.1-0"}, domain.RecordKeys(res.Removed))
	assert.Equal(t, []string{"jinja2-3.2-0"}, domain.RecordKeys(res.Added))

	assert.Equal(t, "jinja2 3.2",
		readFile(t, filepath.Join(loc.TargetPrefix, "lib", "python3.12", "site-packages", "jinja2", "__init__.py")))
	assert.Equal(t, "cookiecutter", readFile(t, filepath.Join(loc.TargetPrefix, "bin", "cookiecutter")))

	env, err := m.Status(loc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, env.Status)
	assert.Contains(t, domain.RecordKeys(env.Installed), "jinja2-3.2-0")
}

func TestManager_Remove(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	_, err := m.Create(t.Context(), loc, nil, []string{"cookiecutter"})
	require.NoError(t, err)

	res, err := m.Remove(t.Context(), loc)
	require.NoError(t, err)
	assert.Len(t, res.Removed, 4)
	assert.NoFileExists(t, loc.SpecFile)
	assert.NoDirExists(t, loc.TargetPrefix)

	// The package store keeps its entries for other environments.
	entries, err := os.ReadDir(h.storeDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	_, err = m.Remove(t.Context(), loc)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManager_Remove_KeepsForeignFiles(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	_, err := m.Create(t.Context(), loc, nil, []string{"python"})
	require.NoError(t, err)
	foreign := filepath.Join(loc.TargetPrefix, "bin", "mine.sh")
	require.NoError(t, os.WriteFile(foreign, []byte("mine"), 0o600))

	_, err = m.Remove(t.Context(), loc)
	require.NoError(t, err)
	assert.FileExists(t, foreign)
	assert.NoFileExists(t, filepath.Join(loc.TargetPrefix, "bin", "python"))
	assert.NoFileExists(t, domain.ManifestPath(loc.TargetPrefix))
}

func TestManager_PathEnvironment(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("./project/env")

	assert.Equal(t, domain.KindPath, loc.Kind)
	_, err := m.Create(t.Context(), loc, nil, []string{"requests"})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(loc.TargetPrefix, domain.SpecFileName))

	// The spec file path now resolves to the same environment.
	again := h.location(loc.SpecFile)
	assert.Equal(t, loc.TargetPrefix, again.TargetPrefix)
	env, err := m.Status(again)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, env.Status)
}

func TestManager_MissingPathEnvironmentLeavesNoDirectory(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("./typo")

	_, err := m.Remove(t.Context(), loc)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = m.Merge(t.Context(), loc, nil, []string{"python"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = m.Update(t.Context(), loc)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoDirExists(t, loc.TargetPrefix)
}

func TestManager_List(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()

	names, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, alias := range []string{"web", "data"} {
		_, err := m.Create(t.Context(), h.location(alias), nil, []string{"python"})
		require.NoError(t, err)
	}
	_, err = m.Create(t.Context(), h.location("./local"), nil, []string{"python"})
	require.NoError(t, err)

	names, err = m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"data", "web"}, names)
}

func TestManager_Status_NotSyncedAfterManualEdit(t *testing.T) {
	h := newHarness(t, newCatalog(ecosystem()...))
	m := h.manager()
	loc := h.location("cc")

	_, err := m.Create(t.Context(), loc, nil, []string{"python"})
	require.NoError(t, err)

	spec, err := h.specs.Load(loc.SpecFile)
	require.NoError(t, err)
	spec.Requests = append(spec.Requests, "requests")
	require.NoError(t, h.specs.Save(loc.SpecFile, *spec))

	env, err := m.Status(loc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotSynced, env.Status)
}
