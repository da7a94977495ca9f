package app_test

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/app"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports"
	"go.uber.org/mock/gomock"
)

func events(evs ...ports.WatchEvent) iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for _, ev := range evs {
			if !yield(ev) {
				return
			}
		}
	}
}

func TestApp_Watch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.app.WithDebounce(time.Hour)
	opts := app.ConfigureOptions{SourceDir: f.srcDir, BuildDir: f.buildDir, Force: true}

	f.loader.EXPECT().DiscoverConfigPaths(f.srcDir).Return(paths, nil).Times(2)
	f.expectLoad(t)
	f.expectLoad(t)
	f.store.EXPECT().Save(f.buildDir, gomock.Any()).Return(nil).Times(2)
	f.logger.EXPECT().Info("configured demo: 1 targets in " + f.buildDir).Times(2)

	f.watcher.EXPECT().Start(gomock.Any(), f.srcDir).Return(nil)
	f.logger.EXPECT().Info("watching " + f.srcDir + " for changes")
	f.watcher.EXPECT().Events().Return(events(
		ports.WatchEvent{Path: filepath.Join(f.srcDir, "lib", domain.ProjectFileName), Operation: ports.OpWrite},
		ports.WatchEvent{Path: filepath.Join(f.srcDir, domain.ProjectFileName), Operation: ports.OpWrite},
	))
	f.logger.EXPECT().Info("changed: lib/weld.yaml, weld.yaml")
	f.watcher.EXPECT().Stop().Return(nil)

	require.NoError(t, f.app.Watch(context.Background(), opts))
}

func TestApp_Watch_KeepsWatchingAfterFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	opts := app.ConfigureOptions{SourceDir: f.srcDir, BuildDir: f.buildDir, Force: true}

	f.loader.EXPECT().DiscoverConfigPaths(f.srcDir).Return(nil, domain.ErrConfigNotFound)
	f.logger.EXPECT().Error(gomock.Any())
	f.watcher.EXPECT().Start(gomock.Any(), f.srcDir).Return(nil)
	f.logger.EXPECT().Info(gomock.Any())
	f.watcher.EXPECT().Events().Return(events())
	f.watcher.EXPECT().Stop().Return(nil)

	require.NoError(t, f.app.Watch(context.Background(), opts))
}

func TestApp_Watch_StartFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	opts := app.ConfigureOptions{SourceDir: f.srcDir, BuildDir: f.buildDir, Force: true}

	f.loader.EXPECT().DiscoverConfigPaths(f.srcDir).Return(paths, nil)
	f.expectLoad(t)
	f.store.EXPECT().Save(f.buildDir, gomock.Any()).Return(nil)
	f.logger.EXPECT().Info(gomock.Any())
	f.watcher.EXPECT().Start(gomock.Any(), f.srcDir).Return(errors.New("too many open files"))

	require.ErrorContains(t, f.app.Watch(context.Background(), opts), "too many open files")
}

func TestApp_Watch_ReconfigureSpan(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.app.WithDebounce(time.Hour)
	sr := recordSpans(t, f.app)
	opts := app.ConfigureOptions{SourceDir: f.srcDir, BuildDir: f.buildDir, Force: true}

	f.loader.EXPECT().DiscoverConfigPaths(f.srcDir).Return(paths, nil).Times(2)
	f.expectLoad(t)
	f.expectLoad(t)
	f.store.EXPECT().Save(f.buildDir, gomock.Any()).Return(nil).Times(2)
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	f.watcher.EXPECT().Start(gomock.Any(), f.srcDir).Return(nil)
	f.watcher.EXPECT().Events().Return(events(
		ports.WatchEvent{Path: filepath.Join(f.srcDir, domain.ProjectFileName), Operation: ports.OpWrite},
	))
	f.watcher.EXPECT().Stop().Return(nil)

	require.NoError(t, f.app.Watch(context.Background(), opts))

	spans := sr.Ended()
	require.NotEmpty(t, spans)
	reconfigure := spans[len(spans)-1]
	assert.Equal(t, "watch.reconfigure", reconfigure.Name())
	assert.Equal(t, []string{domain.ProjectFileName}, spanAttr(reconfigure, "changed").AsStringSlice())

	configure := spans[len(spans)-2]
	assert.Equal(t, "configure", configure.Name())
	assert.Equal(t, reconfigure.SpanContext().SpanID(), configure.Parent().SpanID())
}
