package ports

// Registry enumerates alias environments.
//
//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks
type Registry interface {
	// ListAliases returns the sorted names of alias environments that have a spec file.
	ListAliases() ([]string, error)
}
