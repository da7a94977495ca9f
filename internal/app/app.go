// Package app implements the application layer for weld.
package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/weld/internal/adapters/detector"  //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/weld/internal/ui/output"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	toolchains ports.ToolchainLoader
	loader     ports.ProjectLoader
	store      ports.SnapshotStore
	watcher    ports.Watcher
	logger     ports.Logger
	tracer     ports.Tracer
	workers    int
	debounce   time.Duration
	profile    func() termenv.Profile
	detect     func() detector.OutputMode
}

// New creates a new App instance.
func New(
	toolchains ports.ToolchainLoader,
	loader ports.ProjectLoader,
	store ports.SnapshotStore,
	w ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		toolchains: toolchains,
		loader:     loader,
		store:      store,
		watcher:    w,
		logger:     log,
		tracer:     telemetry.NewNoOpTracer(),
		workers:    runtime.NumCPU(),
		debounce:   watcher.DefaultDebounceWindow,
		profile:    output.ColorProfile,
		detect:     detector.DetectEnvironment,
	}
}

// WithTracer records the configure phases as spans of t.
func (a *App) WithTracer(t ports.Tracer) *App {
	a.tracer = t
	return a
}

// WithOutputMode overrides terminal detection.
func (a *App) WithOutputMode(mode detector.OutputMode) *App {
	a.detect = func() detector.OutputMode { return mode }
	return a
}

// colorProfile picks the profile for the --color flag value.
func (a *App) colorProfile(flag string) func() termenv.Profile {
	switch detector.ResolveMode(a.detect(), flag) {
	case detector.ModePlain:
		return output.Plain
	default:
		if flag == "always" {
			return output.ColorProfileANSI
		}
		return a.profile
	}
}

// WithColorProfile overrides the color profile of rendered output.
// This is primarily used for testing.
func (a *App) WithColorProfile(fn func() termenv.Profile) *App {
	a.profile = fn
	return a
}

// WithWorkers bounds the number of targets described concurrently.
func (a *App) WithWorkers(n int) *App {
	if n > 0 {
		a.workers = n
	}
	return a
}

// WithDebounce sets how long Watch waits for project files to settle.
func (a *App) WithDebounce(d time.Duration) *App {
	a.debounce = d
	return a
}

// ConfigureOptions configuration for the Configure method.
type ConfigureOptions struct {
	SourceDir string
	BuildDir  string
	// Force reconfigures even when no project file changed.
	Force bool
}

// Configure reads the project below opts.SourceDir, validates it and saves
// the frozen build into opts.BuildDir. A snapshot whose project files are
// unchanged is reused.
func (a *App) Configure(ctx context.Context, opts ConfigureOptions) (*domain.Build, error) {
	ctx, span := a.tracer.Start(ctx, "configure", ports.WithAttribute("force", opts.Force))
	defer span.End()

	b, err := a.configure(ctx, span, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return b, nil
}

func (a *App) configure(ctx context.Context, span ports.Span, opts ConfigureOptions) (*domain.Build, error) {
	var srcDir, buildDir string
	if err := a.phase(ctx, "resolve_dirs", func(context.Context) (err error) {
		srcDir, buildDir, err = resolveDirs(opts.SourceDir, opts.BuildDir)
		return err
	}); err != nil {
		return nil, err
	}
	span.SetAttribute("source_dir", srcDir)
	span.SetAttribute("build_dir", buildDir)

	var paths map[string]int64
	if err := a.phase(ctx, "discover", func(context.Context) (err error) {
		paths, err = a.loader.DiscoverConfigPaths(srcDir)
		return err
	}); err != nil {
		return nil, err
	}

	if !opts.Force {
		var prev *domain.Build
		var ok bool
		if err := a.phase(ctx, "snapshot.check", func(context.Context) (err error) {
			prev, ok, err = a.previous(buildDir, srcDir, paths)
			return err
		}); err != nil {
			return nil, err
		}
		span.SetAttribute("reused", ok)
		if ok {
			a.logger.Info(fmt.Sprintf("%s is up to date", buildDir))
			return prev, nil
		}
	}

	var tc *domain.Toolchain
	if err := a.phase(ctx, "toolchain.load", func(context.Context) (err error) {
		tc, err = a.toolchains.Load(srcDir)
		if err != nil {
			return zerr.Wrap(err, "failed to load toolchain")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	env := tc.Environment(srcDir, buildDir)

	var b *domain.Build
	if err := a.phase(ctx, "project.load", func(ctx context.Context) (err error) {
		b, err = a.loader.Load(ctx, tc, env, domain.WithWarningSink(a.logger.Warn))
		if err != nil {
			return zerr.Wrap(err, "failed to load project")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	b.Stamp = domain.ConfigStamp{
		ConfigPaths: slices.Sorted(maps.Keys(paths)),
		Mtimes:      paths,
	}
	if err := a.phase(ctx, "freeze", func(context.Context) error {
		return b.Freeze()
	}); err != nil {
		return nil, err
	}
	if err := a.phase(ctx, "snapshot.save", func(context.Context) error {
		return a.store.Save(buildDir, b)
	}); err != nil {
		return nil, err
	}
	span.SetAttribute("targets", b.Len())

	a.logger.Info(fmt.Sprintf("configured %s: %d targets in %s", projectLabel(b), b.Len(), buildDir))
	return b, nil
}

// phase runs fn inside a child span named name.
func (a *App) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := a.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// previous returns the saved build of buildDir when it was configured from
// srcDir and none of its project files changed since.
func (a *App) previous(buildDir, srcDir string, paths map[string]int64) (*domain.Build, bool, error) {
	prev, err := a.store.Load(buildDir)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		return nil, false, nil
	case errors.Is(err, domain.ErrSnapshotStale):
		a.logger.Warn(fmt.Sprintf("%s was configured by another version of weld, reconfiguring from scratch", buildDir))
		return nil, false, nil
	case errors.Is(err, domain.ErrSnapshotCorrupt):
		a.logger.Warn(fmt.Sprintf("snapshot in %s is corrupt, reconfiguring", buildDir))
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	if prev.Environment().SourceDir != srcDir {
		return nil, false, zerr.With(zerr.Wrap(domain.ErrInvalidArguments,
			"build directory belongs to another source tree"), "source_dir", prev.Environment().SourceDir)
	}
	if changed := prev.Stamp.Changed(paths); len(changed) > 0 {
		a.logger.Info("reconfiguring, changed: " + strings.Join(changed, ", "))
		return nil, false, nil
	}
	return prev, true, nil
}

func resolveDirs(srcDir, buildDir string) (string, string, error) {
	if srcDir == "" {
		srcDir = "."
	}
	src, err := filepath.Abs(srcDir)
	if err != nil {
		return "", "", zerr.Wrap(err, "failed to resolve source directory")
	}
	if buildDir == "" {
		buildDir = filepath.Join(src, domain.DefaultBuildDir)
	}
	build, err := filepath.Abs(buildDir)
	if err != nil {
		return "", "", zerr.Wrap(err, "failed to resolve build directory")
	}
	if build == src {
		return "", "", zerr.With(zerr.Wrap(domain.ErrInvalidArguments,
			"source and build directories must differ"), "path", src)
	}
	return src, build, nil
}

func projectLabel(b *domain.Build) string {
	if b.ProjectVersion == "" {
		return b.ProjectName
	}
	return b.ProjectName + " " + b.ProjectVersion
}
