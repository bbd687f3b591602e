package domain

import "strings"

// PackageRecord is a concrete package chosen by the resolver.
// Identity is name, version, build and content hash; the rest describes where to fetch it from.
type PackageRecord struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	SHA256      string   `json:"sha256"`
	Channel     string   `json:"channel,omitempty"`
	Subdir      string   `json:"subdir,omitempty"`
	Filename    string   `json:"fn,omitempty"`
	URL         string   `json:"url,omitempty"`
	Size        int64    `json:"size,omitempty"`
	Depends     []string `json:"depends,omitempty"`
	// Files lists the relative paths the package contributes to a prefix.
	// When empty the package store derives it from the extracted entry.
	Files []string `json:"files,omitempty"`
}

// Key returns name-version-build, the conventional archive stem.
func (r PackageRecord) Key() string {
	return r.Name + "-" + r.Version + "-" + r.Build
}

// Identity returns the full identity tuple including the content hash.
// The hash is compared case-insensitively.
func (r PackageRecord) Identity() string {
	return r.Key() + "@" + strings.ToLower(r.SHA256)
}

// String implements fmt.Stringer.
func (r PackageRecord) String() string {
	return r.Key()
}

// SameIdentity reports whether two records denote the same package bytes.
func (r PackageRecord) SameIdentity(other PackageRecord) bool {
	return r.Identity() == other.Identity()
}

// StoreEntry is an extracted package in the shared package store.
type StoreEntry struct {
	// Hash is the content hash the entry is keyed by.
	Hash string
	// Dir is the extracted directory.
	Dir string
	// Files are the relative paths of the regular files and symlinks in Dir.
	Files []string
}

// LinkReport summarises how a package was placed into a prefix.
type LinkReport struct {
	Package  string
	Linked   int
	Copied   int
	Failures []LinkFailure
}

// ResolveRequest is the input handed to the resolver.
type ResolveRequest struct {
	Channels []string
	Requests []string
	// Installed is the currently materialized set; resolvers prefer it when it still satisfies the requests.
	Installed []PackageRecord
	// Refresh asks the resolver to bypass cached channel metadata.
	Refresh bool
}

// RecordKeys returns the Key of every record.
func RecordKeys(records []PackageRecord) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key()
	}
	return keys
}

// DiffRecords splits target against current into records to add and records to remove.
// Records present in both by identity are left alone. Order follows the input slices.
func DiffRecords(current, target []PackageRecord) (added, removed []PackageRecord) {
	have := make(map[string]struct{}, len(current))
	for _, r := range current {
		have[r.Identity()] = struct{}{}
	}
	want := make(map[string]struct{}, len(target))
	for _, r := range target {
		want[r.Identity()] = struct{}{}
		if _, ok := have[r.Identity()]; !ok {
			added = append(added, r)
		}
	}
	for _, r := range current {
		if _, ok := want[r.Identity()]; !ok {
			removed = append(removed, r)
		}
	}
	return added, removed
}
