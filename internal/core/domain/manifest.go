package domain

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ManifestVersion is the current manifest format version.
const ManifestVersion = 1

// ManifestState tracks whether the prefix matches the recorded set.
type ManifestState string

const (
	// ManifestComplete means every record in the manifest is linked into the prefix.
	ManifestComplete ManifestState = "complete"
	// ManifestPending means an operation started changing the prefix and did not finish.
	ManifestPending ManifestState = "pending"
)

// Manifest is the last-resolved record set stored inside a target prefix.
// It is the installed set used by merge, update and remove.
type Manifest struct {
	Version  int           `json:"version"`
	State    ManifestState `json:"state"`
	Channels []string      `json:"channels"`
	Requests []string      `json:"requests"`
	Digest   string        `json:"digest"`
	// Records is the set the last finished operation linked.
	Records []PackageRecord `json:"records"`
	// Planned is the set a pending operation was linking when it stopped.
	Planned   []PackageRecord `json:"planned,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewManifest builds a complete manifest for spec and the records linked for it.
func NewManifest(spec EnvironmentSpec, records []PackageRecord, now time.Time) Manifest {
	return Manifest{
		Version:   ManifestVersion,
		State:     ManifestComplete,
		Channels:  cloneList(spec.Channels),
		Requests:  cloneList(spec.Requests),
		Digest:    SpecDigest(spec),
		Records:   records,
		UpdatedAt: now,
	}
}

// Unfinished returns the planned records of a pending manifest that were never
// committed. Any of them may be partly linked into the prefix.
func (m Manifest) Unfinished() []PackageRecord {
	if m.State != ManifestPending {
		return nil
	}
	extra, _ := DiffRecords(m.Records, m.Planned)
	return extra
}

// SpecDigest fingerprints the channels and requests of a spec.
// Timestamps are not part of the digest.
func SpecDigest(spec EnvironmentSpec) string {
	d := xxhash.New()
	for _, ch := range spec.Channels {
		_, _ = d.WriteString("c:")
		_, _ = d.WriteString(ch)
		_, _ = d.Write([]byte{0})
	}
	for _, req := range spec.Requests {
		_, _ = d.WriteString("r:")
		_, _ = d.WriteString(req)
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// MergeRecords returns base plus the records of extra not already present by identity.
func MergeRecords(base, extra []PackageRecord) []PackageRecord {
	out := make([]PackageRecord, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]PackageRecord{base, extra} {
		for _, r := range list {
			if _, ok := seen[r.Identity()]; ok {
				continue
			}
			seen[r.Identity()] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
