package lifecycle

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// prefetch makes every record present in the package store. Downloads run in
// parallel up to the configured concurrency; the prefix is not touched.
func (m *Manager) prefetch(ctx context.Context, records []domain.PackageRecord) (map[string]domain.StoreEntry, error) {
	entries := make(map[string]domain.StoreEntry, len(records))
	if len(records) == 0 {
		return entries, nil
	}

	ctx, span := m.tracer.Start(ctx, "fetch", ports.WithAttribute("packages", len(records)))
	defer span.End()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for _, rec := range records {
		g.Go(func() error {
			entry, err := m.store.EnsureMaterialized(gctx, rec)
			if err != nil {
				return &domain.MaterializationError{Package: rec.Key(), Cause: err}
			}
			mu.Lock()
			entries[rec.Identity()] = entry
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return entries, nil
}

// linkAll links records into prefix one by one in the given order. The returned
// records carry the files they contributed. On failure the returned
// *domain.MaterializationError lists completed followed by the packages linked so far.
func (m *Manager) linkAll(
	records []domain.PackageRecord,
	entries map[string]domain.StoreEntry,
	prefix string,
	completed []string,
) ([]domain.PackageRecord, []domain.LinkFailure, error) {
	linked := make([]domain.PackageRecord, 0, len(records))
	done := slices.Clone(completed)
	var warnings []domain.LinkFailure

	for _, rec := range records {
		entry := entries[rec.Identity()]
		report, err := m.store.LinkInto(rec, entry, prefix)
		for _, failure := range report.Failures {
			m.logger.Warn("copied " + failure.File + " from " + failure.Package + ": hard link failed: " + failure.Cause.Error())
		}
		warnings = append(warnings, report.Failures...)

		if err != nil {
			var matErr *domain.MaterializationError
			if errors.As(err, &matErr) {
				matErr.Completed = done
				return nil, warnings, matErr
			}
			return nil, warnings, &domain.MaterializationError{Package: rec.Key(), Completed: done, Cause: err}
		}

		if len(rec.Files) == 0 {
			rec.Files = slices.Clone(entry.Files)
		}
		linked = append(linked, rec)
		done = append(done, rec.Key())
		m.logger.Debug("linked " + rec.Key() + " (" + strconv.Itoa(report.Linked) + " linked, " +
			strconv.Itoa(report.Copied) + " copied)")
	}

	return linked, warnings, nil
}

// unlinkAll unlinks records from prefix in reverse order, sparing kept files.
// It returns the keys of the unlinked records. With steps set, a failure is
// reported as a *domain.PartialUpdateError over those steps.
func (m *Manager) unlinkAll(
	records []domain.PackageRecord,
	prefix string,
	kept map[string]struct{},
	steps []string,
) ([]string, error) {
	done := make([]string, 0, len(records))
	for _, rec := range reversed(records) {
		if err := m.unlink(rec, prefix, kept); err != nil {
			if steps == nil {
				return done, err
			}
			return done, &domain.PartialUpdateError{
				Completed: done,
				Remaining: remainingAfter(steps, done),
				Cause:     err,
			}
		}
		done = append(done, rec.Key())
	}
	return done, nil
}

// unlink removes rec from prefix, sparing files that a remaining package also provides.
func (m *Manager) unlink(rec domain.PackageRecord, prefix string, kept map[string]struct{}) error {
	if len(rec.Files) > 0 && len(kept) > 0 {
		files := make([]string, 0, len(rec.Files))
		for _, f := range rec.Files {
			if _, ok := kept[f]; !ok {
				files = append(files, f)
			}
		}
		if len(files) == 0 {
			return nil
		}
		rec.Files = files
	}
	return m.store.UnlinkFrom(rec, prefix)
}

// keptFiles returns the files of the installed records that are not being removed.
func keptFiles(installed, removed []domain.PackageRecord) map[string]struct{} {
	gone := make(map[string]struct{}, len(removed))
	for _, r := range removed {
		gone[r.Identity()] = struct{}{}
	}
	kept := make(map[string]struct{})
	for _, r := range installed {
		if _, ok := gone[r.Identity()]; ok {
			continue
		}
		for _, f := range r.Files {
			kept[f] = struct{}{}
		}
	}
	return kept
}

// withFiles returns target with missing file lists taken from the same records in sources.
func withFiles(target []domain.PackageRecord, sources ...[]domain.PackageRecord) []domain.PackageRecord {
	files := make(map[string][]string)
	for _, source := range sources {
		for _, r := range source {
			if _, ok := files[r.Identity()]; !ok && len(r.Files) > 0 {
				files[r.Identity()] = r.Files
			}
		}
	}
	out := make([]domain.PackageRecord, len(target))
	for i, r := range target {
		if f, ok := files[r.Identity()]; ok && len(r.Files) == 0 {
			r.Files = f
		}
		out[i] = r
	}
	return out
}

// withEntryFiles returns records with missing file lists taken from their store entries.
func withEntryFiles(records []domain.PackageRecord, entries map[string]domain.StoreEntry) []domain.PackageRecord {
	out := make([]domain.PackageRecord, len(records))
	for i, r := range records {
		if entry, ok := entries[r.Identity()]; ok && len(r.Files) == 0 {
			r.Files = slices.Clone(entry.Files)
		}
		out[i] = r
	}
	return out
}

// intersect returns the records of list whose identity also appears in of.
func intersect(list, of []domain.PackageRecord) []domain.PackageRecord {
	want := make(map[string]struct{}, len(of))
	for _, r := range of {
		want[r.Identity()] = struct{}{}
	}
	var out []domain.PackageRecord
	for _, r := range list {
		if _, ok := want[r.Identity()]; ok {
			out = append(out, r)
		}
	}
	return out
}

func reversed(records []domain.PackageRecord) []domain.PackageRecord {
	out := slices.Clone(records)
	slices.Reverse(out)
	return out
}
