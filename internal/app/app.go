// Package app implements the application layer for viva.
package app

import (
	"context"
	"io"
	"strconv"

	"go.trai.ch/viva/internal/adapters/specifier"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
	"go.trai.ch/viva/internal/engine/lifecycle"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	manager  *lifecycle.Manager
	osctx    specifier.OSContext
	executor ports.Executor
	logger   ports.Logger
}

// New creates a new App instance.
func New(manager *lifecycle.Manager, osctx specifier.OSContext, executor ports.Executor, log ports.Logger) *App {
	return &App{
		manager:  manager,
		osctx:    osctx,
		executor: executor,
		logger:   log,
	}
}

// EnvOptions are the inputs shared by the commands that change an environment.
type EnvOptions struct {
	// Channels are appended to the environment's channels. Empty means the
	// configured default channels when the environment is created.
	Channels []string
	// Requests are the package match requests to add.
	Requests []string
	// Check decides whether an existing environment is touched. Empty means domain.CheckAuto.
	Check domain.CheckStrategy
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	EnvOptions
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Locate resolves an environment specifier against this process's directories.
func (a *App) Locate(spec string) (domain.EnvironmentLocation, error) {
	return specifier.Resolve(spec, a.osctx)
}

// Create materializes a new environment.
func (a *App) Create(ctx context.Context, spec string, opts EnvOptions) (*lifecycle.Result, error) {
	loc, err := a.Locate(spec)
	if err != nil {
		return nil, err
	}
	res, err := a.manager.Create(ctx, loc, opts.Channels, opts.Requests)
	if err != nil {
		return nil, err
	}
	a.report(res)
	return res, nil
}

// Apply makes sure the environment exists and contains the given requests.
// With domain.CheckSkip an existing environment is left as it is; with
// domain.CheckForce every package is relinked.
func (a *App) Apply(ctx context.Context, spec string, opts EnvOptions) (*lifecycle.Result, error) {
	loc, err := a.Locate(spec)
	if err != nil {
		return nil, err
	}

	var res *lifecycle.Result
	switch opts.Check {
	case domain.CheckSkip:
		env, err := a.manager.Status(loc)
		if err != nil {
			return nil, err
		}
		if env.Status != domain.StatusMissing {
			a.logger.Info(loc.String() + " exists; leaving it as it is")
			return &lifecycle.Result{Location: loc, Spec: *env.Spec, Records: env.Installed}, nil
		}
		res, err = a.manager.Apply(ctx, loc, opts.Channels, opts.Requests)
		if err != nil {
			return nil, err
		}
	case domain.CheckForce:
		res, err = a.manager.Repair(ctx, loc, opts.Channels, opts.Requests)
	default:
		res, err = a.manager.Apply(ctx, loc, opts.Channels, opts.Requests)
	}
	if err != nil {
		return nil, err
	}
	a.report(res)
	return res, nil
}

// Merge adds channels and requests to an existing environment.
func (a *App) Merge(ctx context.Context, spec string, opts EnvOptions) (*lifecycle.Result, error) {
	loc, err := a.Locate(spec)
	if err != nil {
		return nil, err
	}
	res, err := a.manager.Merge(ctx, loc, opts.Channels, opts.Requests)
	if err != nil {
		return nil, err
	}
	a.report(res)
	return res, nil
}

// Update re-resolves an existing environment against fresh channel metadata.
func (a *App) Update(ctx context.Context, spec string) (*lifecycle.Result, error) {
	loc, err := a.Locate(spec)
	if err != nil {
		return nil, err
	}
	res, err := a.manager.Update(ctx, loc)
	if err != nil {
		return nil, err
	}
	a.report(res)
	return res, nil
}

// Remove deletes an environment.
func (a *App) Remove(ctx context.Context, spec string) (*lifecycle.Result, error) {
	loc, err := a.Locate(spec)
	if err != nil {
		return nil, err
	}
	res, err := a.manager.Remove(ctx, loc)
	if err != nil {
		return nil, err
	}
	a.logger.Info("removed " + loc.String())
	return res, nil
}

// Status reports the state of a single environment.
func (a *App) Status(spec string) (*domain.Environment, error) {
	loc, err := a.Locate(spec)
	if err != nil {
		return nil, err
	}
	return a.manager.Status(loc)
}

// List returns every alias environment with its status.
// Environments whose spec file cannot be read are reported and skipped.
func (a *App) List() ([]domain.Environment, error) {
	names, err := a.manager.List()
	if err != nil {
		return nil, err
	}

	envs := make([]domain.Environment, 0, len(names))
	for _, name := range names {
		env, err := a.Status(name)
		if err != nil {
			a.logger.Warn("skipping " + name + ": " + err.Error())
			continue
		}
		envs = append(envs, *env)
	}
	return envs, nil
}

// Run executes argv[0] from the environment's executable directory.
// The process environment is passed on unchanged. Before that the environment
// is prepared according to opts.Check:
//   - auto creates or extends it when requests are given or it does not exist,
//     and relinks it when it was interrupted or argv[0] is missing from it
//   - skip runs the command as things are
//   - force resolves the environment and relinks every package
func (a *App) Run(ctx context.Context, spec string, argv []string, opts RunOptions) error {
	if len(argv) == 0 {
		return domain.ErrNoCommand
	}

	loc, err := a.Locate(spec)
	if err != nil {
		return err
	}

	if err := a.prepare(ctx, loc, argv[0], opts.EnvOptions); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to prepare environment"), "environment", loc.String())
	}

	return a.executor.Execute(ctx, loc.TargetPrefix, argv, opts.Stdin, opts.Stdout, opts.Stderr)
}

func (a *App) prepare(ctx context.Context, loc domain.EnvironmentLocation, command string, opts EnvOptions) error {
	var err error
	switch opts.Check {
	case domain.CheckSkip:
		return nil
	case domain.CheckForce:
		_, err = a.manager.Repair(ctx, loc, opts.Channels, opts.Requests)
		return err
	}

	env, err := a.manager.Status(loc)
	if err != nil {
		return err
	}

	switch {
	case len(opts.Requests) > 0 || env.Status == domain.StatusMissing:
		_, err = a.manager.Apply(ctx, loc, opts.Channels, opts.Requests)
	case env.Status == domain.StatusPending:
		a.logger.Warn(loc.String() + " " + env.Status.String() + "; relinking it")
		_, err = a.manager.Repair(ctx, loc, opts.Channels, nil)
	default:
		if _, lookupErr := a.executor.Lookup(loc.TargetPrefix, command); lookupErr == nil {
			return nil
		}
		a.logger.Info(command + " is not in " + loc.String() + "; relinking it")
		_, err = a.manager.Repair(ctx, loc, opts.Channels, nil)
	}
	return err
}

// ConfigureLogging switches the logger between human and JSON output and
// enables debug messages when verbose is set.
func (a *App) ConfigureLogging(verbose, jsonMode bool) {
	if l, ok := a.logger.(interface{ SetVerbose(bool) }); ok {
		l.SetVerbose(verbose)
	}
	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(jsonMode)
	}
}

func (a *App) report(res *lifecycle.Result) {
	if len(res.Added) > 0 || len(res.Removed) > 0 {
		a.logger.Info(res.Location.String() + ": " + strconv.Itoa(len(res.Added)) + " added, " +
			strconv.Itoa(len(res.Removed)) + " removed")
	}
	if n := len(res.Warnings); n > 0 {
		a.logger.Warn(strconv.Itoa(n) + " files were copied because hard-linking failed")
	}
}
