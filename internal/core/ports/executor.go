package ports

import (
	"context"
	"io"
)

// Executor runs programs installed in an environment.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs argv[0] from the prefix's executable directory with the remaining arguments.
	// The process environment is inherited unchanged.
	Execute(ctx context.Context, prefix string, argv []string, stdin io.Reader, stdout, stderr io.Writer) error

	// Lookup returns the path Execute would run for name, or domain.ErrExecutableNotFound.
	Lookup(prefix, name string) (string, error)
}
