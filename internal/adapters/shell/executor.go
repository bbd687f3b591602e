// Package shell runs programs installed in an environment prefix.
package shell

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
	"go.trai.ch/zerr"
)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
	goos   string
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger, goos: runtime.GOOS}
}

// Execute runs argv[0] from the prefix's executable directory with stdio passed through.
// The environment is not activated: the process inherits the caller's environment unchanged.
func (e *Executor) Execute(
	ctx context.Context,
	prefix string,
	argv []string,
	stdin io.Reader,
	stdout, stderr io.Writer,
) error {
	if len(argv) == 0 {
		return zerr.Wrap(domain.ErrNoCommand, "nothing to run")
	}

	executable, err := e.Lookup(prefix, argv[0])
	if err != nil {
		return err
	}
	e.logger.Debug("running " + executable)

	cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // user provided command
	cmd.Args[0] = argv[0]
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &domain.CommandError{Command: argv[0], ExitCode: exitCode, Cause: err}
	}
	return nil
}

// Lookup finds name inside the prefix's executable directory. On Windows a name
// without extension also matches name.exe.
func (e *Executor) Lookup(prefix, name string) (string, error) {
	notFound := func() error {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrExecutableNotFound, "no such program"),
			"command", name), "prefix", prefix)
	}

	if name == "" || filepath.Base(name) != name {
		return "", notFound()
	}

	dir := filepath.Join(prefix, domain.BinDirName())
	candidates := []string{filepath.Join(dir, name)}
	if e.goos == "windows" && filepath.Ext(name) == "" {
		candidates = append(candidates, filepath.Join(dir, name+".exe"))
	}

	for _, candidate := range candidates {
		if err := e.findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", notFound()
}

func (e *Executor) findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if d.IsDir() {
		return fs.ErrInvalid
	}
	if e.goos != "windows" && d.Mode()&0o111 == 0 {
		return fs.ErrPermission
	}
	return nil
}
