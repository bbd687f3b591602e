package ports

import (
	"context"

	"go.trai.ch/viva/internal/core/domain"
)

// Resolver turns channels and match requests into a concrete package set.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type Resolver interface {
	// Resolve returns records ordered so that dependencies come before dependents,
	// ties broken by name. The same request and metadata always yield the same result.
	// It returns an error wrapping domain.ErrUnsatisfiable when no consistent set exists.
	Resolve(ctx context.Context, req domain.ResolveRequest) ([]domain.PackageRecord, error)
}
