// Package lifecycle creates, merges, updates and removes environments.
//
// Every mutating operation holds the environment lock for its whole duration and
// follows the same order: resolve, fetch into the package store, link into the
// prefix, write the manifest and finally the spec file. A spec file therefore
// always describes a prefix whose materialization completed.
package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
	"go.trai.ch/zerr"
)

// Result describes what an operation changed.
type Result struct {
	Location domain.EnvironmentLocation
	Spec     domain.EnvironmentSpec
	// Records is the installed set after the operation, in install order.
	Records []domain.PackageRecord
	Added   []domain.PackageRecord
	Removed []domain.PackageRecord
	// Warnings are files that had to be copied because hard-linking failed.
	Warnings []domain.LinkFailure
}

// Manager implements the environment lifecycle operations.
type Manager struct {
	specs     ports.SpecStore
	manifests ports.ManifestStore
	resolver  ports.Resolver
	store     ports.PackageStore
	locker    ports.Locker
	registry  ports.Registry
	tracer    ports.Tracer
	logger    ports.Logger

	defaultChannels []string
	concurrency     int
	now             func() time.Time
}

// NewManager creates a new Manager with the given dependencies.
func NewManager(
	specs ports.SpecStore,
	manifests ports.ManifestStore,
	resolver ports.Resolver,
	store ports.PackageStore,
	locker ports.Locker,
	registry ports.Registry,
	tracer ports.Tracer,
	logger ports.Logger,
	cfg *domain.Config,
) *Manager {
	m := &Manager{
		specs:       specs,
		manifests:   manifests,
		resolver:    resolver,
		store:       store,
		locker:      locker,
		registry:    registry,
		tracer:      tracer,
		logger:      logger,
		concurrency: domain.DefaultConcurrency(),
		now:         time.Now,
	}
	if cfg != nil {
		m.defaultChannels = cfg.DefaultChannels
		if cfg.Concurrency > 0 {
			m.concurrency = cfg.Concurrency
		}
	}
	if len(m.defaultChannels) == 0 {
		m.defaultChannels = []string{domain.DefaultChannel}
	}
	return m
}

// Create materializes a new environment at loc. It fails with domain.ErrAlreadyExists
// when a spec file is present. No channels means the configured default channels.
func (m *Manager) Create(ctx context.Context, loc domain.EnvironmentLocation, channels, requests []string) (*Result, error) {
	ctx, span := m.tracer.Start(ctx, "create", ports.WithAttribute("environment", loc.String()))
	defer span.End()

	res, err := m.withLock(loc, func() (*Result, error) {
		return m.create(ctx, loc, channels, requests)
	})
	span.RecordError(err)
	return res, err
}

// Apply creates the environment when it has no spec file and merges into it otherwise.
func (m *Manager) Apply(ctx context.Context, loc domain.EnvironmentLocation, channels, requests []string) (*Result, error) {
	return m.apply(ctx, "apply", loc, channels, requests, false)
}

// Repair behaves like Apply and additionally relinks every package of the
// resolved set, restoring files that went missing from the prefix.
func (m *Manager) Repair(ctx context.Context, loc domain.EnvironmentLocation, channels, requests []string) (*Result, error) {
	return m.apply(ctx, "repair", loc, channels, requests, true)
}

func (m *Manager) apply(
	ctx context.Context,
	name string,
	loc domain.EnvironmentLocation,
	channels, requests []string,
	relink bool,
) (*Result, error) {
	ctx, span := m.tracer.Start(ctx, name, ports.WithAttribute("environment", loc.String()))
	defer span.End()

	res, err := m.withLock(loc, func() (*Result, error) {
		existing, err := m.loadSpec(loc)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return m.create(ctx, loc, channels, requests)
		case err != nil:
			return nil, err
		default:
			return m.merge(ctx, loc, *existing, channels, requests, relink)
		}
	})
	span.RecordError(err)
	return res, err
}

// Merge adds channels and requests to an existing environment and links the newly
// required packages. Packages that are no longer required stay in the prefix.
func (m *Manager) Merge(ctx context.Context, loc domain.EnvironmentLocation, channels, requests []string) (*Result, error) {
	ctx, span := m.tracer.Start(ctx, "merge", ports.WithAttribute("environment", loc.String()))
	defer span.End()

	if _, err := m.loadSpec(loc); err != nil {
		span.RecordError(err)
		return nil, err
	}

	res, err := m.withLock(loc, func() (*Result, error) {
		existing, err := m.loadSpec(loc)
		if err != nil {
			return nil, err
		}
		return m.merge(ctx, loc, *existing, channels, requests, false)
	})
	span.RecordError(err)
	return res, err
}

// Update re-resolves the environment's requests against fresh channel metadata,
// unlinks packages that are no longer part of the result and links new ones.
func (m *Manager) Update(ctx context.Context, loc domain.EnvironmentLocation) (*Result, error) {
	ctx, span := m.tracer.Start(ctx, "update", ports.WithAttribute("environment", loc.String()))
	defer span.End()

	if _, err := m.loadSpec(loc); err != nil {
		span.RecordError(err)
		return nil, err
	}

	res, err := m.withLock(loc, func() (*Result, error) {
		return m.update(ctx, loc)
	})
	span.RecordError(err)
	return res, err
}

// Remove unlinks every installed package, deletes the spec file and removes the
// prefix when nothing else is left in it. A second Remove fails with domain.ErrNotFound.
func (m *Manager) Remove(ctx context.Context, loc domain.EnvironmentLocation) (*Result, error) {
	_, span := m.tracer.Start(ctx, "remove", ports.WithAttribute("environment", loc.String()))
	defer span.End()

	if _, err := m.loadSpec(loc); err != nil {
		span.RecordError(err)
		return nil, err
	}

	res, err := m.withLock(loc, func() (*Result, error) {
		return m.remove(loc)
	})
	span.RecordError(err)
	return res, err
}

// List returns the names of all alias environments.
func (m *Manager) List() ([]string, error) {
	return m.registry.ListAliases()
}

// Status reports how the prefix of loc relates to its spec file. It takes no lock.
func (m *Manager) Status(loc domain.EnvironmentLocation) (*domain.Environment, error) {
	env := &domain.Environment{Location: loc}

	spec, err := m.loadSpec(loc)
	if errors.Is(err, domain.ErrNotFound) {
		env.Status = domain.StatusMissing
		return env, nil
	}
	if err != nil {
		return nil, err
	}
	env.Spec = spec

	manifest, err := m.manifests.Load(loc.TargetPrefix)
	if err != nil {
		return nil, err
	}
	if manifest != nil {
		env.Installed = manifest.Records
	}
	env.Status = domain.StatusOf(spec, manifest)
	return env, nil
}

// withLock runs fn while holding the environment lock. A held lock fails fast.
// Taking the lock may create the prefix of a path environment, so operations
// that need an existing environment check its spec file first.
func (m *Manager) withLock(loc domain.EnvironmentLocation, fn func() (*Result, error)) (*Result, error) {
	unlock, err := m.locker.TryLock(loc.LockFile())
	if err != nil {
		return nil, err
	}
	defer func() {
		if unlockErr := unlock(); unlockErr != nil {
			m.logger.Warn("failed to release lock " + loc.LockFile() + ": " + unlockErr.Error())
		}
	}()

	return fn()
}

func (m *Manager) loadSpec(loc domain.EnvironmentLocation) (*domain.EnvironmentSpec, error) {
	spec, err := m.specs.Load(loc.SpecFile)
	if err != nil {
		return nil, zerr.With(err, "environment", loc.String())
	}
	return spec, nil
}

// prior is what earlier operations left in a prefix.
type prior struct {
	// committed is the set the last finished operation linked.
	committed []domain.PackageRecord
	// stale are records an unfinished operation planned but never committed.
	stale []domain.PackageRecord
	// interrupted means the prefix may be partly linked and every target record is relinked.
	interrupted bool
}

func (m *Manager) previous(loc domain.EnvironmentLocation) (*domain.Manifest, prior, error) {
	manifest, err := m.manifests.Load(loc.TargetPrefix)
	if err != nil || manifest == nil {
		return nil, prior{}, err
	}
	return manifest, prior{
		committed:   manifest.Records,
		stale:       manifest.Unfinished(),
		interrupted: manifest.State == domain.ManifestPending,
	}, nil
}

// installed returns the recorded package sets of an existing environment.
func (m *Manager) installed(loc domain.EnvironmentLocation) (prior, error) {
	manifest, p, err := m.previous(loc)
	if err != nil {
		return prior{}, err
	}
	if manifest == nil {
		m.logger.Warn("no manifest found in " + loc.TargetPrefix + "; treating the environment as empty")
	}
	if p.interrupted {
		m.logger.Warn("a previous operation on " + loc.String() + " did not finish; relinking every package")
	}
	return p, nil
}

func (m *Manager) create(
	ctx context.Context,
	loc domain.EnvironmentLocation,
	channels, requests []string,
) (*Result, error) {
	_, err := m.specs.Load(loc.SpecFile)
	switch {
	case err == nil:
		return nil, zerr.With(zerr.Wrap(domain.ErrAlreadyExists, "spec file is present"), "spec_file", loc.SpecFile)
	case errors.Is(err, domain.ErrSpecCorrupt):
		return nil, errors.Join(
			zerr.With(zerr.Wrap(domain.ErrAlreadyExists, "spec file is present"), "spec_file", loc.SpecFile),
			err,
		)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if len(channels) == 0 {
		channels = m.defaultChannels
	}
	now := m.now()
	spec := domain.NewEnvironmentSpec(channels, requests, now)

	records, err := m.resolve(ctx, spec, nil, false)
	if err != nil {
		return nil, err
	}

	entries, err := m.prefetch(ctx, records)
	if err != nil {
		return nil, err
	}

	// A failed create or a lost spec file can leave packages behind.
	_, p, err := m.previous(loc)
	if err != nil {
		return nil, err
	}
	_, abandoned := domain.DiffRecords(domain.MergeRecords(p.committed, p.stale), records)

	planned := domain.MergeRecords(withEntryFiles(records, entries), abandoned)
	if err := m.manifests.Save(loc.TargetPrefix, pendingManifest(spec, nil, planned, now)); err != nil {
		return nil, err
	}

	if _, err := m.unlinkAll(abandoned, loc.TargetPrefix, nil, nil); err != nil {
		return nil, err
	}

	linked, warnings, err := m.linkAll(records, entries, loc.TargetPrefix, nil)
	if err != nil {
		return nil, err
	}

	if err := m.commit(loc, spec, linked); err != nil {
		return nil, err
	}

	m.logger.Info("created " + loc.String())
	return &Result{
		Location: loc,
		Spec:     spec,
		Records:  linked,
		Added:    linked,
		Warnings: warnings,
	}, nil
}

func (m *Manager) merge(
	ctx context.Context,
	loc domain.EnvironmentLocation,
	existing domain.EnvironmentSpec,
	channels, requests []string,
	relink bool,
) (*Result, error) {
	p, err := m.installed(loc)
	if err != nil {
		return nil, err
	}

	now := m.now()
	spec := domain.MergeRequests(existing, channels, requests).Touch(now)

	target, err := m.resolve(ctx, spec, p.committed, false)
	if err != nil {
		return nil, err
	}

	added, _ := domain.DiffRecords(p.committed, target)
	_, abandoned := domain.DiffRecords(p.stale, target)
	toLink := added
	if p.interrupted || relink {
		toLink = target
	}

	entries, err := m.prefetch(ctx, toLink)
	if err != nil {
		return nil, err
	}

	if len(toLink) > 0 || len(abandoned) > 0 {
		planned := domain.MergeRecords(withEntryFiles(target, entries), p.stale)
		if err := m.manifests.Save(loc.TargetPrefix, pendingManifest(spec, p.committed, planned, now)); err != nil {
			return nil, err
		}
	}

	steps := append(domain.RecordKeys(reversed(abandoned)), domain.RecordKeys(toLink)...)
	done, err := m.unlinkAll(abandoned, loc.TargetPrefix, keptFiles(p.committed, nil), steps)
	if err != nil {
		return nil, err
	}

	linked, warnings, err := m.linkAll(toLink, entries, loc.TargetPrefix, done)
	if err != nil {
		return nil, partialUpdate(err, steps)
	}

	// Packages dropped by the new resolution stay installed and recorded.
	final := domain.MergeRecords(withFiles(target, linked, p.committed), p.committed)
	if err := m.commit(loc, spec, final); err != nil {
		return nil, &domain.PartialUpdateError{Completed: steps, Cause: err}
	}

	m.logger.Info("merged into " + loc.String())
	return &Result{
		Location: loc,
		Spec:     spec,
		Records:  final,
		Added:    intersect(linked, added),
		Warnings: warnings,
	}, nil
}

func (m *Manager) update(ctx context.Context, loc domain.EnvironmentLocation) (*Result, error) {
	existing, err := m.loadSpec(loc)
	if err != nil {
		return nil, err
	}
	p, err := m.installed(loc)
	if err != nil {
		return nil, err
	}

	now := m.now()
	spec := existing.Touch(now)

	target, err := m.resolve(ctx, spec, nil, true)
	if err != nil {
		return nil, err
	}

	added, removed := domain.DiffRecords(p.committed, target)
	_, abandoned := domain.DiffRecords(p.stale, target)
	toLink := added
	if p.interrupted {
		toLink = target
	}

	entries, err := m.prefetch(ctx, toLink)
	if err != nil {
		return nil, err
	}

	if len(toLink) > 0 || len(removed) > 0 || len(abandoned) > 0 {
		planned := domain.MergeRecords(withEntryFiles(target, entries), p.stale)
		if err := m.manifests.Save(loc.TargetPrefix, pendingManifest(spec, p.committed, planned, now)); err != nil {
			return nil, err
		}
	}

	// Dependents are unlinked first.
	toUnlink := slices.Concat(removed, abandoned)
	steps := append(domain.RecordKeys(reversed(toUnlink)), domain.RecordKeys(toLink)...)
	done, err := m.unlinkAll(toUnlink, loc.TargetPrefix, keptFiles(p.committed, removed), steps)
	if err != nil {
		return nil, err
	}

	linked, warnings, err := m.linkAll(toLink, entries, loc.TargetPrefix, done)
	if err != nil {
		return nil, partialUpdate(err, steps)
	}

	final := withFiles(target, linked, p.committed)
	if err := m.commit(loc, spec, final); err != nil {
		return nil, &domain.PartialUpdateError{Completed: steps, Cause: err}
	}

	m.logger.Info("updated " + loc.String())
	return &Result{
		Location: loc,
		Spec:     spec,
		Records:  final,
		Added:    intersect(linked, added),
		Removed:  removed,
		Warnings: warnings,
	}, nil
}

func (m *Manager) remove(loc domain.EnvironmentLocation) (*Result, error) {
	spec, err := m.loadSpec(loc)
	if err != nil {
		return nil, err
	}

	manifest, err := m.manifests.Load(loc.TargetPrefix)
	if err != nil {
		return nil, err
	}

	var records []domain.PackageRecord
	if manifest == nil {
		m.logger.Warn("no manifest found in " + loc.TargetPrefix + "; package files are left in place")
	} else {
		records = domain.MergeRecords(manifest.Records, manifest.Unfinished())
	}

	// Dependents go first.
	var errs []error
	for i := len(records) - 1; i >= 0; i-- {
		if err := m.store.UnlinkFrom(records[i], loc.TargetPrefix); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := m.manifests.Delete(loc.TargetPrefix); err != nil {
		return nil, err
	}
	if err := m.specs.Delete(loc.SpecFile); err != nil {
		return nil, err
	}

	removeIfEmpty(filepath.Join(loc.TargetPrefix, domain.MetaDirName))
	removeIfEmpty(loc.TargetPrefix)

	return &Result{Location: loc, Spec: *spec, Removed: records}, nil
}

func (m *Manager) resolve(
	ctx context.Context,
	spec domain.EnvironmentSpec,
	installed []domain.PackageRecord,
	refresh bool,
) ([]domain.PackageRecord, error) {
	ctx, span := m.tracer.Start(ctx, "resolve",
		ports.WithAttribute("requests", spec.Requests),
		ports.WithAttribute("channels", spec.Channels),
	)
	defer span.End()

	records, err := m.resolver.Resolve(ctx, domain.ResolveRequest{
		Channels:  spec.Channels,
		Requests:  spec.Requests,
		Installed: installed,
		Refresh:   refresh,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("packages", len(records))
	m.logger.Debug("resolved " + strconv.Itoa(len(records)) + " packages")
	return records, nil
}

// commit records the linked set and then persists the spec. The spec is always written last.
func (m *Manager) commit(loc domain.EnvironmentLocation, spec domain.EnvironmentSpec, records []domain.PackageRecord) error {
	if err := m.manifests.Save(loc.TargetPrefix, domain.NewManifest(spec, records, spec.LastUpdatedAt)); err != nil {
		return err
	}
	return m.specs.Save(loc.SpecFile, spec)
}

// pendingManifest keeps the committed set and records what is about to be linked.
func pendingManifest(spec domain.EnvironmentSpec, committed, planned []domain.PackageRecord, now time.Time) domain.Manifest {
	manifest := domain.NewManifest(spec, committed, now)
	manifest.State = domain.ManifestPending
	manifest.Planned = planned
	return manifest
}

// partialUpdate classifies a link failure that happened after the prefix was changed.
// planned lists the link steps; the completed ones are taken from err.
func partialUpdate(err error, planned []string) error {
	var matErr *domain.MaterializationError
	if errors.As(err, &matErr) {
		return &domain.PartialUpdateError{
			Completed: matErr.Completed,
			Remaining: remainingAfter(planned, matErr.Completed),
			Cause:     err,
		}
	}
	return &domain.PartialUpdateError{Remaining: planned, Cause: err}
}

func remainingAfter(all, completed []string) []string {
	done := make(map[string]struct{}, len(completed))
	for _, key := range completed {
		done[key] = struct{}{}
	}
	var out []string
	for _, key := range all {
		if _, ok := done[key]; !ok {
			out = append(out, key)
		}
	}
	return out
}

// removeIfEmpty deletes dir when it is empty. Any failure leaves it in place.
func removeIfEmpty(dir string) {
	if entries, err := os.ReadDir(dir); err != nil || len(entries) > 0 {
		return
	}
	_ = os.Remove(dir)
}
