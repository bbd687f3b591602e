package channel

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"

	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxSteps bounds the backtracking search of a single Resolve call.
const DefaultMaxSteps = 200_000

// Solver implements ports.Resolver by searching conda channel indexes.
//
// Channels are strictly prioritised: a package name is taken from the first
// channel that carries it at all, unless the request pins a channel. Among the
// candidates of a channel the installed record is preferred when it still
// matches, then the highest version and build number.
type Solver struct {
	source   RepodataSource
	alias    string
	platform string
	maxSteps int
}

// NewSolver creates a Solver that reads indexes of platform and noarch from source.
// Channel names that are not URLs are resolved against alias.
func NewSolver(source RepodataSource, alias, platform string) *Solver {
	return &Solver{
		source:   source,
		alias:    strings.TrimRight(alias, "/"),
		platform: platform,
		maxSteps: DefaultMaxSteps,
	}
}

// ChannelURL returns the base URL of a channel.
func ChannelURL(alias, channel string) string {
	if strings.Contains(channel, "://") {
		return strings.TrimRight(channel, "/")
	}
	return strings.TrimRight(alias, "/") + "/" + strings.Trim(channel, "/")
}

// Resolve computes the package set for the request, ordered dependencies first with ties broken by name.
func (s *Solver) Resolve(ctx context.Context, req domain.ResolveRequest) ([]domain.PackageRecord, error) {
	specs := make([]MatchSpec, 0, len(req.Requests))
	for _, r := range req.Requests {
		spec, err := ParseMatchSpec(r)
		if err != nil {
			return nil, errors.Join(domain.ErrUnsatisfiable, err)
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return []domain.PackageRecord{}, nil
	}
	if len(req.Channels) == 0 {
		return nil, zerr.Wrap(domain.ErrUnsatisfiable, "no channels to resolve from")
	}

	index, err := s.loadIndex(ctx, req.Channels, req.Refresh)
	if err != nil {
		return nil, err
	}

	installed := make(map[string]domain.PackageRecord, len(req.Installed))
	for _, rec := range req.Installed {
		installed[rec.Name] = rec
	}

	search := &search{
		ctx:       ctx,
		index:     index,
		installed: installed,
		selected:  make(map[string]domain.PackageRecord),
		deps:      make(map[string][]MatchSpec),
		maxSteps:  s.maxSteps,
	}

	if !search.solve(specs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg := "no package set satisfies the requests"
		if search.exhausted {
			msg = "search gave up before finding a package set"
		}
		unsat := zerr.With(zerr.Wrap(domain.ErrUnsatisfiable, msg), "requests", strings.Join(req.Requests, ", "))
		if search.conflict != "" {
			unsat = zerr.With(unsat, "conflict", search.conflict)
		}
		return nil, unsat
	}

	return search.ordered(), nil
}

type candidate struct {
	rec       domain.PackageRecord
	priority  int
	timestamp int64
}

type subdirIndex struct {
	priority int
	channel  string
	url      string
	subdir   string
	repodata *Repodata
}

// loadIndex fetches every channel subdir in parallel and merges them in priority order.
func (s *Solver) loadIndex(ctx context.Context, channels []string, refresh bool) (map[string][]candidate, error) {
	subdirs := []string{s.platform, NoarchSubdir}
	parts := make([]subdirIndex, 0, len(channels)*len(subdirs))
	for i, ch := range channels {
		for _, sd := range subdirs {
			parts = append(parts, subdirIndex{priority: i, channel: ch, url: ChannelURL(s.alias, ch), subdir: sd})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range parts {
		g.Go(func() error {
			repodata, err := s.source.Fetch(gctx, parts[i].url, parts[i].subdir, refresh)
			if err != nil {
				return zerr.With(err, "channel", parts[i].channel)
			}
			parts[i].repodata = repodata
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(map[string][]candidate)
	for _, part := range parts {
		for _, c := range part.candidates() {
			index[c.rec.Name] = append(index[c.rec.Name], c)
		}
	}
	for name := range index {
		slices.SortFunc(index[name], compareCandidates)
	}
	return index, nil
}

// candidates converts a subdir index to records. A .conda entry replaces the
// .tar.bz2 entry of the same package.
func (p subdirIndex) candidates() []candidate {
	byStem := make(map[string]candidate)
	add := func(fn string, r RepodataRecord) {
		subdir := r.Subdir
		if subdir == "" {
			subdir = p.subdir
		}
		byStem[archiveStem(fn)] = candidate{
			priority:  p.priority,
			timestamp: r.Timestamp,
			rec: domain.PackageRecord{
				Name:        strings.ToLower(r.Name),
				Version:     r.Version,
				Build:       r.Build,
				BuildNumber: r.BuildNumber,
				SHA256:      strings.ToLower(r.SHA256),
				Channel:     p.channel,
				Subdir:      subdir,
				Filename:    fn,
				URL:         p.url + "/" + p.subdir + "/" + fn,
				Size:        r.Size,
				Depends:     slices.Clone(r.Depends),
			},
		}
	}
	for _, fn := range sortedKeys(p.repodata.Packages) {
		add(fn, p.repodata.Packages[fn])
	}
	for _, fn := range sortedKeys(p.repodata.PackagesConda) {
		add(fn, p.repodata.PackagesConda[fn])
	}

	out := make([]candidate, 0, len(byStem))
	for _, stem := range sortedKeys(byStem) {
		out = append(out, byStem[stem])
	}
	return out
}

func archiveStem(fn string) string {
	for _, suffix := range []string{".tar.bz2", ".conda"} {
		if strings.HasSuffix(fn, suffix) {
			return strings.TrimSuffix(fn, suffix)
		}
	}
	return fn
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// compareCandidates orders by channel priority, then newest first.
func compareCandidates(a, b candidate) int {
	if c := cmp.Compare(a.priority, b.priority); c != 0 {
		return c
	}
	if c := CompareVersions(b.rec.Version, a.rec.Version); c != 0 {
		return c
	}
	if c := cmp.Compare(b.rec.BuildNumber, a.rec.BuildNumber); c != 0 {
		return c
	}
	if c := cmp.Compare(b.timestamp, a.timestamp); c != 0 {
		return c
	}
	return strings.Compare(a.rec.Filename, b.rec.Filename)
}

type search struct {
	ctx       context.Context
	index     map[string][]candidate
	installed map[string]domain.PackageRecord
	selected  map[string]domain.PackageRecord
	deps      map[string][]MatchSpec
	maxSteps  int
	steps     int
	exhausted bool
	conflict  string
}

// solve satisfies pending in order, selecting one record per name and backtracking on conflicts.
func (s *search) solve(pending []MatchSpec) bool {
	s.steps++
	if s.steps > s.maxSteps {
		s.exhausted = true
		return false
	}
	if s.ctx.Err() != nil {
		return false
	}
	if len(pending) == 0 {
		return true
	}

	spec, rest := pending[0], pending[1:]
	if isVirtual(spec.Name) {
		return s.solve(rest)
	}

	if rec, ok := s.selected[spec.Name]; ok {
		if spec.Matches(rec) {
			return s.solve(rest)
		}
		s.conflict = spec.String() + " (selected " + rec.Key() + ")"
		return false
	}

	candidates := s.candidates(spec)
	if len(candidates) == 0 {
		s.conflict = spec.String() + " (no matching package)"
		return false
	}

	for _, rec := range candidates {
		deps, ok := s.dependencies(rec)
		if !ok {
			continue
		}

		s.selected[rec.Name] = rec
		next := make([]MatchSpec, 0, len(rest)+len(deps))
		next = append(next, rest...)
		next = append(next, deps...)
		if s.solve(next) {
			return true
		}
		delete(s.selected, rec.Name)

		if s.exhausted || s.ctx.Err() != nil {
			return false
		}
	}
	return false
}

// candidates returns the records spec accepts, in preference order.
func (s *search) candidates(spec MatchSpec) []domain.PackageRecord {
	all := s.index[spec.Name]
	if len(all) == 0 {
		return nil
	}

	top := all[0].priority
	var out []domain.PackageRecord
	for _, c := range all {
		if spec.Channel == "" && c.priority != top {
			continue
		}
		if spec.Matches(c.rec) {
			out = append(out, c.rec)
		}
	}

	if inst, ok := s.installed[spec.Name]; ok {
		if i := slices.IndexFunc(out, inst.SameIdentity); i > 0 {
			preferred := out[i]
			out = slices.Delete(out, i, i+1)
			out = slices.Insert(out, 0, preferred)
		}
	}
	return out
}

func (s *search) dependencies(rec domain.PackageRecord) ([]MatchSpec, bool) {
	key := rec.Identity()
	if deps, ok := s.deps[key]; ok {
		return deps, deps != nil
	}

	deps := make([]MatchSpec, 0, len(rec.Depends))
	for _, d := range rec.Depends {
		spec, err := ParseMatchSpec(d)
		if err != nil {
			s.deps[key] = nil
			return nil, false
		}
		deps = append(deps, spec)
	}
	s.deps[key] = deps
	return deps, true
}

// ordered returns the selection dependencies first, ties broken by name.
func (s *search) ordered() []domain.PackageRecord {
	pending := make(map[string]int, len(s.selected))
	dependents := make(map[string][]string, len(s.selected))
	for name, rec := range s.selected {
		seen := make(map[string]struct{})
		deps, _ := s.dependencies(rec)
		for _, d := range deps {
			if _, ok := s.selected[d.Name]; !ok || d.Name == name {
				continue
			}
			if _, dup := seen[d.Name]; dup {
				continue
			}
			seen[d.Name] = struct{}{}
			pending[name]++
			dependents[d.Name] = append(dependents[d.Name], name)
		}
	}

	var ready []string
	for name := range s.selected {
		if pending[name] == 0 {
			ready = append(ready, name)
		}
	}

	out := make([]domain.PackageRecord, 0, len(s.selected))
	done := make(map[string]bool, len(s.selected))
	for len(ready) > 0 {
		slices.Sort(ready)
		name := ready[0]
		ready = ready[1:]
		out = append(out, s.selected[name])
		done[name] = true
		for _, dep := range dependents[name] {
			pending[dep]--
			if pending[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	// Dependency cycles are placed last in name order.
	var cyclic []string
	for name := range s.selected {
		if !done[name] {
			cyclic = append(cyclic, name)
		}
	}
	slices.Sort(cyclic)
	for _, name := range cyclic {
		out = append(out, s.selected[name])
	}
	return out
}

// isVirtual reports whether name is a virtual package provided by the host, such as __glibc.
func isVirtual(name string) bool {
	return strings.HasPrefix(name, "__")
}
