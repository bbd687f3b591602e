package domain

// LocationKind distinguishes alias environments from path environments.
type LocationKind int

const (
	// KindAlias is an environment addressed by a short name under the user directories.
	KindAlias LocationKind = iota
	// KindPath is an environment addressed by a filesystem path.
	KindPath
)

// String returns the lower-case name of the kind.
func (k LocationKind) String() string {
	switch k {
	case KindAlias:
		return "alias"
	case KindPath:
		return "path"
	default:
		return "unknown"
	}
}

// EnvironmentLocation is where an environment lives on disk.
// TargetPrefix and SpecFile are derived together from one specifier and never relocated independently.
type EnvironmentLocation struct {
	// Kind records which specifier rule produced the location.
	Kind LocationKind
	// Name is the alias for alias environments and the original specifier for path environments.
	Name string
	// TargetPrefix is the directory package files are materialized into.
	TargetPrefix string
	// SpecFile is the declarative spec file.
	SpecFile string
}

// LockFile returns the lock file colocated with the spec file.
func (l EnvironmentLocation) LockFile() string {
	return l.SpecFile + LockSuffix
}

// String returns a human readable identifier for the environment.
func (l EnvironmentLocation) String() string {
	if l.Kind == KindAlias {
		return l.Name
	}
	return l.TargetPrefix
}
