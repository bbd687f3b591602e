package domain

// Environment aggregates what is known about one environment during a single invocation.
// It is never persisted as a whole.
type Environment struct {
	Location  EnvironmentLocation
	Spec      *EnvironmentSpec
	Installed []PackageRecord
	Status    SyncStatus
}

// SyncStatus describes how the prefix relates to the spec file.
type SyncStatus int

const (
	// StatusMissing means there is no spec file.
	StatusMissing SyncStatus = iota
	// StatusSynced means the manifest was produced from the current spec.
	StatusSynced
	// StatusNotSynced means the spec changed since the prefix was last materialized,
	// or the prefix has no manifest.
	StatusNotSynced
	// StatusPending means an operation was interrupted while changing the prefix.
	StatusPending
)

// String returns the lower-case status label.
func (s SyncStatus) String() string {
	switch s {
	case StatusMissing:
		return "missing"
	case StatusSynced:
		return "synced"
	case StatusNotSynced:
		return "not synced"
	case StatusPending:
		return "needs repair"
	default:
		return "unknown"
	}
}

// StatusOf compares a spec with the manifest found in its prefix.
func StatusOf(spec *EnvironmentSpec, manifest *Manifest) SyncStatus {
	switch {
	case spec == nil:
		return StatusMissing
	case manifest == nil:
		return StatusNotSynced
	case manifest.State == ManifestPending:
		return StatusPending
	case manifest.Digest != SpecDigest(*spec):
		return StatusNotSynced
	default:
		return StatusSynced
	}
}
