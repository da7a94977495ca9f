package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.trai.ch/weld/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
)

// Watch configures the build, then reconfigures it whenever a project
// file below the source directory changes. Configuration errors are logged
// and watching continues. It returns when ctx is done or the watcher stops.
func (a *App) Watch(ctx context.Context, opts ConfigureOptions) error {
	srcDir, _, err := resolveDirs(opts.SourceDir, opts.BuildDir)
	if err != nil {
		return err
	}
	if _, err := a.Configure(ctx, opts); err != nil {
		a.logger.Error(err)
	}

	if err := a.watcher.Start(ctx, srcDir); err != nil {
		return zerr.Wrap(err, "failed to watch source tree")
	}
	defer func() { _ = a.watcher.Stop() }()
	a.logger.Info(fmt.Sprintf("watching %s for changes", srcDir))

	changes := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(a.debounce, func(paths []string) {
		select {
		case changes <- paths:
		case <-ctx.Done():
		}
	})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for ev := range a.watcher.Events() {
			debouncer.Add(ev.Path)
		}
		debouncer.Flush()
	}()

	// Files that changed while configuring are picked up by the stamp check.
	reconfigure := func(paths []string) {
		rel := make([]string, 0, len(paths))
		for _, p := range paths {
			if r, err := filepath.Rel(srcDir, p); err == nil {
				p = filepath.ToSlash(r)
			}
			rel = append(rel, p)
		}
		a.logger.Info("changed: " + strings.Join(rel, ", "))

		ctx, span := a.tracer.Start(ctx, "watch.reconfigure", ports.WithAttribute("changed", rel))
		defer span.End()
		if _, err := a.Configure(ctx, opts); err != nil {
			span.RecordError(err)
			a.logger.Error(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			reconfigure(paths)
		case <-stopped:
			select {
			case paths := <-changes:
				reconfigure(paths)
			default:
			}
			return nil
		}
	}
}
